package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/somfycul/cover"
	"github.com/shimmeringbee/somfycul/gateway"
	"github.com/shimmeringbee/somfycul/interface/converters/exporter"
	"github.com/shimmeringbee/somfycul/interface/converters/invoker"
	"sort"
	"strings"
	"sync"
	"time"
)

type Publisher func(ctx context.Context, topic string, payload []byte) error

type mqttError string

func (m mqttError) Error() string {
	return string(m)
}

const UnknownTopic = mqttError("unknown topic")
const UnknownCover = mqttError("unknown cover")

type Interface struct {
	publisher     Publisher
	publisherLock sync.RWMutex
	stop          chan bool

	Mapper          gateway.Mapper
	EventSubscriber gateway.EventSubscriber
	CoverInvoker    invoker.Invoker

	Logger logwrap.Logger

	PublishStateOnConnect  bool
	PublishAggregatedState bool
	PublishIndividualState bool
}

// IncomingMessage handles a message on a topic relative to the configured prefix, only
// covers/<identifier>/<action>/invoke is accepted.
func (i *Interface) IncomingMessage(ctx context.Context, topic string, payload []byte) error {
	topicParts := strings.Split(strings.TrimPrefix(topic, "/"), "/")

	if len(topicParts) > 0 {
		switch topicParts[0] {
		case "covers":
			return i.incomingMessageCovers(ctx, topicParts[1:], payload)
		}
	}

	return fmt.Errorf("%w: %s", UnknownTopic, topic)
}

func (i *Interface) incomingMessageCovers(ctx context.Context, topic []string, payload []byte) error {
	if len(topic) > 0 {
		d, ok := i.Mapper.Cover(topic[0])

		if ok {
			return i.incomingMessageCoversWith(ctx, topic[1:], payload, d)
		}
	}

	return fmt.Errorf("%w: %s", UnknownCover, strings.Join(topic, "/"))
}

func (i *Interface) incomingMessageCoversWith(ctx context.Context, topic []string, payload []byte, d cover.Device) error {
	if len(topic) == 2 && topic[1] == "invoke" {
		if _, err := i.invoker()(ctx, d, topic[0], payload); err != nil {
			return fmt.Errorf("unable to invoke action on cover: %w", err)
		}

		return nil
	}

	return fmt.Errorf("%w: %s", UnknownTopic, strings.Join(topic, "/"))
}

func (i *Interface) invoker() invoker.Invoker {
	if i.CoverInvoker == nil {
		return invoker.InvokeCoverAction
	}

	return i.CoverInvoker
}

func EmptyPublisher(ctx context.Context, topic string, payload []byte) error {
	return nil
}

func (i *Interface) Connected(ctx context.Context, publisher Publisher) error {
	i.publisherLock.Lock()
	i.publisher = publisher
	i.publisherLock.Unlock()

	if i.PublishStateOnConnect {
		i.Logger.LogInfo(ctx, "MQTT connected, publishing current state of all covers.")
		go i.publishAll()
	}

	return nil
}

func (i *Interface) Disconnected() {
	i.publisherLock.Lock()
	i.publisher = EmptyPublisher
	i.publisherLock.Unlock()
}

func (i *Interface) publish(ctx context.Context, topic string, payload []byte) error {
	i.publisherLock.RLock()
	p := i.publisher
	i.publisherLock.RUnlock()

	if p == nil {
		return nil
	}

	return p(ctx, topic, payload)
}

func (i *Interface) publishAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, d := range i.Mapper.Covers() {
		i.publishCover(ctx, d.Identifier(), d.Status())
	}
}

func (i *Interface) publishCover(ctx context.Context, identifier string, status cover.Status) {
	ctx = i.Logger.AddOptionsToContext(ctx, logwrap.Datum("cover", identifier))

	state := exporter.ExportStatus(status)
	topic := fmt.Sprintf("covers/%s/state", identifier)

	if i.PublishAggregatedState {
		if err := i.publishAggregated(ctx, topic, state); err != nil {
			i.Logger.LogError(ctx, "Failed to publish aggregated state of cover.", logwrap.Err(err))
		}
	}

	if i.PublishIndividualState {
		if err := i.publishIndividual(ctx, topic, state); err != nil {
			i.Logger.LogError(ctx, "Failed to publish individual state of cover.", logwrap.Err(err))
		}
	}
}

func (i *Interface) publishAggregated(ctx context.Context, topic string, state exporter.ExportedCoverState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err = i.publish(ctx, topic, payload); err != nil {
		return fmt.Errorf("failed to publish data to mqtt: %w", err)
	}

	return nil
}

func (i *Interface) publishIndividual(ctx context.Context, topic string, state exporter.ExportedCoverState) error {
	fields := exporter.ExportStateFields(state)

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := i.publish(ctx, fmt.Sprintf("%s/%s", topic, name), fmtValue(fields[name])); err != nil {
			return fmt.Errorf("failed to publish data to mqtt: %w", err)
		}
	}

	return nil
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
		case event := <-ch:
			i.serviceUpdateOnEvent(event)
		case <-i.stop:
			return
		}
	}
}

const MaximumServiceUpdateTime = 1 * time.Second

func (i *Interface) serviceUpdateOnEvent(e any) {
	ctx, cancel := context.WithTimeout(context.Background(), MaximumServiceUpdateTime)
	defer cancel()

	switch event := e.(type) {
	case cover.Update:
		i.publishCover(ctx, event.Identifier, event.Status)
	}
}

func fmtValue(v any) []byte {
	if v == nil {
		return []byte("null")
	}

	return []byte(fmt.Sprintf("%v", v))
}
