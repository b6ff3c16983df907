package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/gorilla/websocket"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/somfycul/gateway"
	"github.com/shimmeringbee/somfycul/interface/converters/exporter"
	"net/http"
	"time"
)

type EventMapper interface {
	InitialEvents(context.Context) ([]any, error)
	MapEvent(context.Context, any) ([]any, error)
}

type eventsController struct {
	eventbus    gateway.EventSubscriber
	eventMapper EventMapper
	logger      logwrap.Logger
	heartbeat   time.Duration
}

const ConnectionEventBufferSize = 16

func (z *eventsController) serveServerSideEvent(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	eventsCh := make(chan any, ConnectionEventBufferSize)

	z.eventbus.Subscribe(eventsCh)
	defer z.eventbus.Unsubscribe(eventsCh)

	z.sendLoop(func(b []byte) error {
		data := fmt.Sprintf("data: %s\n\n", b)
		if n, err := w.Write([]byte(data)); err != nil {
			return err
		} else if len(data) != n {
			return fmt.Errorf("failed to send full event: %d != %d", len(data), n)
		}

		flusher.Flush()
		return nil
	}, eventsCh, r.Context().Done())
}

var wsUpgrader = websocket.Upgrader{}

func (z *eventsController) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	c, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer c.Close()

	eventsCh := make(chan any, ConnectionEventBufferSize)
	doneCh := make(chan struct{})

	z.eventbus.Subscribe(eventsCh)

	defer func() {
		z.eventbus.Unsubscribe(eventsCh)
		close(doneCh)
	}()

	go z.sendLoop(func(b []byte) error {
		return c.WriteMessage(websocket.TextMessage, b)
	}, eventsCh, doneCh)

	z.serviceIncoming(c)
}

func (z *eventsController) sendLoop(publish func([]byte) error, ch chan any, doneCh <-chan struct{}) {
	send := func(e any) bool {
		d, err := json.Marshal(e)
		if err != nil {
			z.logger.LogError(context.Background(), "Failed to marshal event message.", logwrap.Err(err))
			return false
		}

		if err := publish(d); err != nil {
			z.logger.LogDebug(context.Background(), "Failed to send event message, closing stream.", logwrap.Err(err))
			return false
		}

		return true
	}

	initCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	events, err := z.eventMapper.InitialEvents(initCtx)
	cancel()

	if err != nil {
		z.logger.LogError(context.Background(), "Failed to build initial event messages.", logwrap.Err(err))
		return
	}

	for _, e := range events {
		if !send(e) {
			return
		}
	}

	var heartbeatCh <-chan time.Time
	if z.heartbeat > 0 {
		ticker := time.NewTicker(z.heartbeat)
		defer ticker.Stop()
		heartbeatCh = ticker.C
	}

	for {
		select {
		case event := <-ch:
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			es, err := z.eventMapper.MapEvent(ctx, event)
			cancel()

			if err != nil {
				z.logger.LogError(context.Background(), "Failed to map event to message.", logwrap.Err(err))
				continue
			}

			for _, e := range es {
				if !send(e) {
					return
				}
			}
		case <-heartbeatCh:
			if !send(exporter.NewHeartBeatMessage()) {
				return
			}
		case <-doneCh:
			return
		}
	}
}

func (z *eventsController) serviceIncoming(c *websocket.Conn) {
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			z.logger.LogDebug(context.Background(), "Websocket closed.", logwrap.Err(err))
			return
		}
	}
}
