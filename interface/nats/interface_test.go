package nats

import (
	"context"
	"encoding/json"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/discard"
	"github.com/shimmeringbee/somfycul/cover"
	"github.com/shimmeringbee/somfycul/gateway"
	"github.com/shimmeringbee/somfycul/interface/converters/invoker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func decodeReply(t *testing.T, data []byte) Reply {
	t.Helper()

	reply := Reply{}
	require.NoError(t, json.Unmarshal(data, &reply))
	return reply
}

func TestInterface_Request(t *testing.T) {
	t.Run("invokes the action and replies with the new state", func(t *testing.T) {
		position := 100

		d := &cover.MockDevice{}
		d.On("Open", mock.Anything).Return(nil)
		d.On("Status").Return(cover.Status{Position: &position})
		defer d.AssertExpectations(t)

		mapper := &gateway.MockMapper{}
		mapper.On("Cover", "A1B2C3").Return(d, true)

		i := Interface{Mapper: mapper, Logger: logwrap.New(discard.Discard()), SubjectPrefix: "home"}

		reply := decodeReply(t, i.Request(context.Background(), "home.covers.A1B2C3.open", nil))

		assert.Empty(t, reply.Error)
		require.NotNil(t, reply.State)
		assert.Equal(t, 100, *reply.State.Position)
	})

	t.Run("replies with invoker errors", func(t *testing.T) {
		d := &cover.MockDevice{}
		d.On("SetPosition", mock.Anything, 101).Return(cover.ErrInvalidPosition)

		mapper := &gateway.MockMapper{}
		mapper.On("Cover", "A1B2C3").Return(d, true)

		i := Interface{Mapper: mapper, Logger: logwrap.New(discard.Discard())}

		reply := decodeReply(t, i.Request(context.Background(), "covers.A1B2C3.set_position", []byte("101")))

		assert.Nil(t, reply.State)
		assert.Contains(t, reply.Error, string(invoker.ActionUserError))
	})

	t.Run("replies with an error for unknown covers", func(t *testing.T) {
		mapper := &gateway.MockMapper{}
		mapper.On("Cover", "FFFFFF").Return((*cover.MockDevice)(nil), false)

		i := Interface{Mapper: mapper, Logger: logwrap.New(discard.Discard())}

		reply := decodeReply(t, i.Request(context.Background(), "covers.FFFFFF.open", nil))
		assert.Contains(t, reply.Error, string(UnknownCover))
	})

	t.Run("replies with an error for subjects outside the prefix", func(t *testing.T) {
		i := Interface{Logger: logwrap.New(discard.Discard()), SubjectPrefix: "home"}

		reply := decodeReply(t, i.Request(context.Background(), "office.covers.A1B2C3.open", nil))
		assert.Contains(t, reply.Error, string(UnknownSubject))

		reply = decodeReply(t, i.Request(context.Background(), "home.gateways.one", nil))
		assert.Contains(t, reply.Error, string(UnknownSubject))
	})
}

func TestInterface_publishState(t *testing.T) {
	t.Run("publishes cover updates from the event bus on the state subject", func(t *testing.T) {
		bus := gateway.NewEventBus()

		i := Interface{EventSubscriber: bus, Logger: logwrap.New(discard.Discard()), SubjectPrefix: "home"}

		published := make(chan string, 1)
		i.setPublisher(func(subject string, payload []byte) error {
			select {
			case published <- subject + " " + string(payload):
			default:
			}
			return nil
		})

		i.Start()
		defer i.Stop()

		position := 30

		require.Eventually(t, func() bool {
			bus.Publish(cover.Update{Identifier: "A1B2C3", Status: cover.Status{Motion: cover.Opening, Position: &position}})

			select {
			case msg := <-published:
				return msg == `home.covers.A1B2C3.state {"Motion":"Opening","IsOpening":true,"IsClosing":false,"IsClosed":false,"Position":30,"Key":0,"Code":0}`
			default:
				return false
			}
		}, time.Second, 10*time.Millisecond)
	})
}
