package invoker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/shimmeringbee/somfycul/cover"
	"github.com/shimmeringbee/somfycul/interface/converters/exporter"
	"time"
)

type Invoker func(ctx context.Context, d cover.Device, actionName string, payload []byte) (any, error)

type ActionError string

func (e ActionError) Error() string {
	return string(e)
}

const ActionNotSupported = ActionError("action not available on cover")
const ActionUserError = ActionError("user provided bad data")

const DefaultActionTimeout = 10 * time.Second

type SetPosition struct {
	Position *int
}

// InvokeCoverAction performs a named action on a cover, returning the state of the cover afterwards.
func InvokeCoverAction(ctx context.Context, d cover.Device, actionName string, payload []byte) (any, error) {
	invokeCtx, cancel := context.WithTimeout(ctx, DefaultActionTimeout)
	defer cancel()

	var err error

	switch actionName {
	case "open":
		err = d.Open(invokeCtx)
	case "close":
		err = d.Close(invokeCtx)
	case "stop":
		err = d.Stop(invokeCtx)
	case "prog":
		err = d.Prog(invokeCtx)
	case "reload":
		err = d.Reload(invokeCtx)
	case "set_position":
		target, perr := parsePosition(payload)
		if perr != nil {
			return nil, perr
		}

		err = d.SetPosition(invokeCtx, target)
	default:
		return nil, ActionNotSupported
	}

	if errors.Is(err, cover.ErrInvalidPosition) {
		return nil, fmt.Errorf("%w: %s", ActionUserError, err.Error())
	} else if errors.Is(err, cover.ErrPositionUnsupported) {
		return nil, fmt.Errorf("%w: %s", ActionNotSupported, err.Error())
	} else if err != nil {
		return nil, err
	}

	return exporter.ExportStatus(d.Status()), nil
}

// parsePosition accepts either a bare number or {"Position": n}.
func parsePosition(payload []byte) (int, error) {
	var bare int
	if err := json.Unmarshal(payload, &bare); err == nil {
		return bare, nil
	}

	input := SetPosition{}
	if err := json.Unmarshal(payload, &input); err != nil {
		return 0, fmt.Errorf("%w: unable to parse user data: %s", ActionUserError, err.Error())
	}

	if input.Position == nil {
		return 0, fmt.Errorf("%w: Position is required", ActionUserError)
	}

	return *input.Position, nil
}
