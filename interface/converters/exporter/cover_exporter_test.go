package exporter

import (
	"github.com/shimmeringbee/somfycul/cover"
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func TestExportCover(t *testing.T) {
	t.Run("exports the configuration and state of a cover", func(t *testing.T) {
		position := 40

		d := &cover.MockDevice{}
		d.On("Identifier").Return("112233")
		d.On("Info").Return(cover.Info{
			Name:        "kitchen",
			Address:     "112233",
			DeviceClass: "shutter",
			Travel:      cover.TravelProfile{Up: 20 * time.Second, Down: 18 * time.Second},
		})
		d.On("Status").Return(cover.Status{Motion: cover.Closing, Position: &position, Key: 4, Code: 300})
		defer d.AssertExpectations(t)

		expected := ExportedCover{
			Identifier:       "112233",
			Name:             "kitchen",
			DeviceClass:      "shutter",
			SupportsPosition: true,
			State: ExportedCoverState{
				Motion:    "Closing",
				IsClosing: true,
				Position:  &position,
				Key:       4,
				Code:      300,
			},
		}

		assert.Equal(t, expected, ExportCover(d))
	})
}

func TestExportStatus(t *testing.T) {
	t.Run("a cover at zero is closed", func(t *testing.T) {
		position := 0
		assert.True(t, ExportStatus(cover.Status{Position: &position}).IsClosed)
	})

	t.Run("a cover of unknown position is not closed", func(t *testing.T) {
		assert.False(t, ExportStatus(cover.Status{}).IsClosed)
	})
}

func TestExportStateFields(t *testing.T) {
	t.Run("an unknown position is exported as nil", func(t *testing.T) {
		fields := ExportStateFields(ExportStatus(cover.Status{Motion: cover.Opening}))

		assert.Nil(t, fields["Position"])
		assert.Equal(t, true, fields["IsOpening"])
		assert.Equal(t, "Opening", fields["Motion"])
	})

	t.Run("a known position is exported as a number", func(t *testing.T) {
		position := 65
		fields := ExportStateFields(ExportStatus(cover.Status{Position: &position}))

		assert.Equal(t, 65, fields["Position"])
	})
}

func TestExportUpdate(t *testing.T) {
	t.Run("wraps a cover update as a typed message", func(t *testing.T) {
		msg := ExportUpdate(cover.Update{Identifier: "112233", Status: cover.Status{Motion: cover.Idle}})

		assert.Equal(t, CoverUpdateMessageName, msg.MessageType())
		assert.Equal(t, "112233", msg.Identifier)
		assert.Equal(t, "Idle", msg.State.Motion)
	})
}
