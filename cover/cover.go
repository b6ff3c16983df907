package cover

import (
	"context"
	"fmt"
	"time"
)

type CoverError string

func (e CoverError) Error() string {
	return string(e)
}

const (
	ErrInvalidPosition     = CoverError("position must be between 0 and 100")
	ErrPositionUnsupported = CoverError("cover has no travel profile, positioning is unsupported")
)

// Motion is what a cover is believed to be doing.
type Motion uint8

const (
	Idle Motion = iota
	Opening
	Closing
)

func (m Motion) String() string {
	switch m {
	case Idle:
		return "Idle"
	case Opening:
		return "Opening"
	case Closing:
		return "Closing"
	default:
		return fmt.Sprintf("Motion(%d)", uint8(m))
	}
}

// TravelProfile holds the time a cover takes to travel its full length in each direction, a zero
// duration means it is not known.
type TravelProfile struct {
	Up   time.Duration
	Down time.Duration
}

// Present reports whether the position of a cover can be estimated.
func (p TravelProfile) Present() bool {
	return p.Up > 0 && p.Down > 0
}

func (p TravelProfile) full(m Motion) time.Duration {
	if m == Closing {
		return p.Down
	}

	return p.Up
}

type Info struct {
	Name        string
	Address     string
	DeviceClass string
	Travel      TravelProfile
	// Reversed swaps up and down for motors installed upside down.
	Reversed bool
	// LegacyStopEstimate assumes a cover of unknown position was half open when a STOP interrupts it.
	LegacyStopEstimate bool
}

// Status is a snapshot of a cover, Position is nil while unknown.
type Status struct {
	Motion   Motion
	Position *int
	Key      uint8
	Code     uint16
}

func (s Status) IsOpening() bool {
	return s.Motion == Opening
}

func (s Status) IsClosing() bool {
	return s.Motion == Closing
}

func (s Status) IsClosed() bool {
	return s.Position != nil && *s.Position == 0
}

// Update is published every time the status of a cover changes.
type Update struct {
	Identifier string
	Status     Status
}

type EventPublisher interface {
	Publish(any)
}

type Device interface {
	Identifier() string
	Info() Info
	Status() Status

	Open(context.Context) error
	Close(context.Context) error
	Stop(context.Context) error
	SetPosition(context.Context, int) error
	Prog(context.Context) error
	Reload(context.Context) error
}
