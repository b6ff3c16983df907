package invoker

import (
	"context"
	"errors"
	"github.com/shimmeringbee/somfycul/cover"
	"github.com/shimmeringbee/somfycul/interface/converters/exporter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"testing"
)

func TestInvokeCoverAction(t *testing.T) {
	t.Run("simple actions are passed to the cover and the new state returned", func(t *testing.T) {
		for _, action := range []string{"open", "close", "stop", "prog", "reload"} {
			d := &cover.MockDevice{}

			method := map[string]string{"open": "Open", "close": "Close", "stop": "Stop", "prog": "Prog", "reload": "Reload"}[action]
			d.On(method, mock.Anything).Return(nil)
			d.On("Status").Return(cover.Status{Motion: cover.Opening})

			result, err := InvokeCoverAction(context.Background(), d, action, nil)
			assert.NoError(t, err, action)
			assert.Equal(t, exporter.ExportStatus(cover.Status{Motion: cover.Opening}), result, action)

			d.AssertExpectations(t)
		}
	})

	t.Run("unknown actions are not supported", func(t *testing.T) {
		_, err := InvokeCoverAction(context.Background(), &cover.MockDevice{}, "tilt", nil)
		assert.True(t, errors.Is(err, ActionNotSupported))
	})

	t.Run("set_position accepts a position object", func(t *testing.T) {
		d := &cover.MockDevice{}
		d.On("SetPosition", mock.Anything, 35).Return(nil)
		d.On("Status").Return(cover.Status{})
		defer d.AssertExpectations(t)

		_, err := InvokeCoverAction(context.Background(), d, "set_position", []byte(`{"Position": 35}`))
		assert.NoError(t, err)
	})

	t.Run("set_position accepts a bare number", func(t *testing.T) {
		d := &cover.MockDevice{}
		d.On("SetPosition", mock.Anything, 80).Return(nil)
		d.On("Status").Return(cover.Status{})
		defer d.AssertExpectations(t)

		_, err := InvokeCoverAction(context.Background(), d, "set_position", []byte(`80`))
		assert.NoError(t, err)
	})

	t.Run("set_position without a position is a user error", func(t *testing.T) {
		_, err := InvokeCoverAction(context.Background(), &cover.MockDevice{}, "set_position", []byte(`{}`))
		assert.True(t, errors.Is(err, ActionUserError))

		_, err = InvokeCoverAction(context.Background(), &cover.MockDevice{}, "set_position", []byte(`nonsense`))
		assert.True(t, errors.Is(err, ActionUserError))
	})

	t.Run("an out of range position is a user error", func(t *testing.T) {
		d := &cover.MockDevice{}
		d.On("SetPosition", mock.Anything, 120).Return(cover.ErrInvalidPosition)
		defer d.AssertExpectations(t)

		_, err := InvokeCoverAction(context.Background(), d, "set_position", []byte(`120`))
		assert.True(t, errors.Is(err, ActionUserError))
	})

	t.Run("positioning a cover without travel times is not supported", func(t *testing.T) {
		d := &cover.MockDevice{}
		d.On("SetPosition", mock.Anything, 50).Return(cover.ErrPositionUnsupported)
		defer d.AssertExpectations(t)

		_, err := InvokeCoverAction(context.Background(), d, "set_position", []byte(`50`))
		assert.True(t, errors.Is(err, ActionNotSupported))
	})
}
