package transport

import (
	"context"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/somfycul/rts"
)

// Link carries complete frames to the RF transceiver. Each Send is atomic, a frame is never
// interleaved with another.
type Link interface {
	Send(frame []byte) error
}

type TransportError string

func (e TransportError) Error() string {
	return string(e)
}

const ErrTransportFailure = TransportError("transport failure")

var _ Link = (*DryRun)(nil)

// DryRun logs frames instead of transmitting them.
type DryRun struct {
	Logger logwrap.Logger
}

func (d *DryRun) Send(frame []byte) error {
	ctx := context.Background()

	decoded, err := rts.Decode(frame)
	if err != nil {
		d.Logger.LogWarn(ctx, "Dry run received a frame that does not decode.", logwrap.Datum("frame", string(frame)), logwrap.Err(err))
		return nil
	}

	d.Logger.LogInfo(ctx, "Dry run, frame not transmitted.", logwrap.Datum("frame", string(frame)),
		logwrap.Datum("address", decoded.Address), logwrap.Datum("command", decoded.Command.String()),
		logwrap.Datum("key", decoded.Key), logwrap.Datum("rollingCode", decoded.Code))

	return nil
}
