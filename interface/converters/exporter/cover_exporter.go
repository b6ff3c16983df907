package exporter

import (
	"github.com/shimmeringbee/somfycul/cover"
)

type ExportedCover struct {
	Identifier       string
	Name             string
	DeviceClass      string
	Reversed         bool
	SupportsPosition bool
	State            ExportedCoverState
}

type ExportedCoverState struct {
	Motion    string
	IsOpening bool
	IsClosing bool
	IsClosed  bool
	Position  *int
	Key       uint8
	Code      uint16
}

func ExportCover(d cover.Device) ExportedCover {
	info := d.Info()

	return ExportedCover{
		Identifier:       d.Identifier(),
		Name:             info.Name,
		DeviceClass:      info.DeviceClass,
		Reversed:         info.Reversed,
		SupportsPosition: info.Travel.Present(),
		State:            ExportStatus(d.Status()),
	}
}

func ExportStatus(s cover.Status) ExportedCoverState {
	return ExportedCoverState{
		Motion:    s.Motion.String(),
		IsOpening: s.IsOpening(),
		IsClosing: s.IsClosing(),
		IsClosed:  s.IsClosed(),
		Position:  s.Position,
		Key:       s.Key,
		Code:      s.Code,
	}
}

// ExportStateFields flattens a state into the individually published fields, keyed by field name.
func ExportStateFields(s ExportedCoverState) map[string]any {
	var position any
	if s.Position != nil {
		position = *s.Position
	}

	return map[string]any{
		"Motion":    s.Motion,
		"IsOpening": s.IsOpening,
		"IsClosing": s.IsClosing,
		"IsClosed":  s.IsClosed,
		"Position":  position,
		"Key":       s.Key,
		"Code":      s.Code,
	}
}
