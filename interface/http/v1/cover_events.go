package v1

import (
	"context"
	"github.com/shimmeringbee/somfycul/cover"
	"github.com/shimmeringbee/somfycul/gateway"
	"github.com/shimmeringbee/somfycul/interface/converters/exporter"
)

// coverEventMapper turns cover updates into stream messages, a new stream starts with the state of
// every cover.
type coverEventMapper struct {
	mapper gateway.Mapper
}

func (m coverEventMapper) InitialEvents(_ context.Context) ([]any, error) {
	var events []any

	for _, d := range m.mapper.Covers() {
		events = append(events, exporter.ExportUpdate(cover.Update{Identifier: d.Identifier(), Status: d.Status()}))
	}

	return events, nil
}

func (m coverEventMapper) MapEvent(_ context.Context, e any) ([]any, error) {
	switch event := e.(type) {
	case cover.Update:
		return []any{exporter.ExportUpdate(event)}, nil
	default:
		return nil, nil
	}
}
