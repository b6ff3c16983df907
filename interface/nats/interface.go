package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/nats-io/nats.go"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/somfycul/cover"
	"github.com/shimmeringbee/somfycul/gateway"
	"github.com/shimmeringbee/somfycul/interface/converters/exporter"
	"github.com/shimmeringbee/somfycul/interface/converters/invoker"
	"strings"
	"sync"
	"time"
)

type Publisher func(subject string, payload []byte) error

type natsError string

func (n natsError) Error() string {
	return string(n)
}

const UnknownSubject = natsError("unknown subject")
const UnknownCover = natsError("unknown cover")

// Reply is the response to a request on a cover action subject.
type Reply struct {
	State *exporter.ExportedCoverState `json:",omitempty"`
	Error string                       `json:",omitempty"`
}

type Interface struct {
	publisher     Publisher
	publisherLock sync.RWMutex
	stop          chan bool

	Mapper          gateway.Mapper
	EventSubscriber gateway.EventSubscriber
	CoverInvoker    invoker.Invoker

	Logger        logwrap.Logger
	SubjectPrefix string
}

const MaximumRequestTime = 10 * time.Second

// Attach subscribes to cover action requests on the connection and publishes state through it.
func (i *Interface) Attach(nc *nats.Conn) (*nats.Subscription, error) {
	i.setPublisher(nc.Publish)

	return nc.Subscribe(i.subject("covers.*.*"), func(m *nats.Msg) {
		if len(m.Reply) == 0 {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), MaximumRequestTime)
		defer cancel()

		if err := m.Respond(i.Request(ctx, m.Subject, m.Data)); err != nil {
			i.Logger.LogError(ctx, "Failed to respond to NATS request.", logwrap.Datum("subject", m.Subject), logwrap.Err(err))
		}
	})
}

func (i *Interface) setPublisher(p Publisher) {
	i.publisherLock.Lock()
	i.publisher = p
	i.publisherLock.Unlock()
}

func (i *Interface) subject(s string) string {
	if len(i.SubjectPrefix) > 0 {
		return i.SubjectPrefix + "." + s
	}

	return s
}

// Request services <prefix>.covers.<identifier>.<action>, the reply carries the resulting state or
// the error.
func (i *Interface) Request(ctx context.Context, subject string, payload []byte) []byte {
	reply := Reply{}

	if state, err := i.invoke(ctx, subject, payload); err != nil {
		i.Logger.LogWarn(ctx, "Failed to handle NATS request.", logwrap.Datum("subject", subject), logwrap.Err(err))
		reply.Error = err.Error()
	} else {
		reply.State = state
	}

	data, err := json.Marshal(reply)
	if err != nil {
		return []byte(`{"Error":"failed to marshal reply"}`)
	}

	return data
}

func (i *Interface) invoke(ctx context.Context, subject string, payload []byte) (*exporter.ExportedCoverState, error) {
	relative := subject
	if len(i.SubjectPrefix) > 0 {
		if !strings.HasPrefix(subject, i.SubjectPrefix+".") {
			return nil, fmt.Errorf("%w: %s", UnknownSubject, subject)
		}

		relative = strings.TrimPrefix(subject, i.SubjectPrefix+".")
	}

	parts := strings.Split(relative, ".")
	if len(parts) != 3 || parts[0] != "covers" {
		return nil, fmt.Errorf("%w: %s", UnknownSubject, subject)
	}

	d, found := i.Mapper.Cover(parts[1])
	if !found {
		return nil, fmt.Errorf("%w: %s", UnknownCover, parts[1])
	}

	coverInvoker := i.CoverInvoker
	if coverInvoker == nil {
		coverInvoker = invoker.InvokeCoverAction
	}

	result, err := coverInvoker(ctx, d, parts[2], payload)
	if err != nil {
		return nil, err
	}

	if state, ok := result.(exporter.ExportedCoverState); ok {
		return &state, nil
	}

	state := exporter.ExportStatus(d.Status())
	return &state, nil
}

func (i *Interface) Start() {
	i.stop = make(chan bool, 1)

	ch := make(chan any, 100)
	i.EventSubscriber.Subscribe(ch)

	go i.handleEvents(ch)
}

func (i *Interface) Stop() {
	if i.stop != nil {
		i.stop <- true
	}
}

func (i *Interface) handleEvents(ch chan any) {
	defer i.EventSubscriber.Unsubscribe(ch)

	for {
		select {
		case e := <-ch:
			if update, ok := e.(cover.Update); ok {
				i.publishState(update)
			}
		case <-i.stop:
			return
		}
	}
}

func (i *Interface) publishState(update cover.Update) {
	i.publisherLock.RLock()
	p := i.publisher
	i.publisherLock.RUnlock()

	if p == nil {
		return
	}

	data, err := json.Marshal(exporter.ExportStatus(update.Status))
	if err != nil {
		i.Logger.LogError(context.Background(), "Failed to marshal cover state.", logwrap.Err(err))
		return
	}

	subject := i.subject(fmt.Sprintf("covers.%s.state", update.Identifier))

	if err := p(subject, data); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		i.Logger.LogError(context.Background(), "Failed to publish cover state to NATS.", logwrap.Datum("subject", subject), logwrap.Err(err))
	}
}
