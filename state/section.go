package state

import (
	"context"
	"github.com/shimmeringbee/persistence"
	"github.com/shimmeringbee/somfycul/rollingcode"
)

var _ Gateway = (*SectionGateway)(nil)

const (
	sectionKey      = "Key"
	sectionCode     = "Code"
	sectionPosition = "Position"
)

// SectionGateway keeps records in a persistence section, one sub section per identity.
type SectionGateway struct {
	Section persistence.Section

	locks identityLocks
}

func (g *SectionGateway) Load(_ context.Context, id string) (Record, bool, error) {
	unlock := g.locks.lock(id)
	defer unlock()

	if !g.Section.SectionExists(id) {
		return Record{}, false, nil
	}

	s := g.Section.Section(id)

	key, _ := s.Int(sectionKey, int64(rollingcode.Default.Key))
	code, _ := s.Int(sectionCode, int64(rollingcode.Default.Code))

	var position *int

	if pos, found := s.Int(sectionPosition); found {
		p := int(pos)
		position = &p
	}

	if err := validateRecord(key, code, position); err != nil {
		return Record{}, false, err
	}

	return Record{
		Rolling:  rollingcode.State{Key: uint8(key), Code: uint16(code)},
		Position: position,
	}, true, nil
}

func (g *SectionGateway) Save(_ context.Context, id string, r Record) error {
	unlock := g.locks.lock(id)
	defer unlock()

	s := g.Section.Section(id)

	s.Set(sectionKey, int64(r.Rolling.Key))
	s.Set(sectionCode, int64(r.Rolling.Code))

	if r.Position != nil {
		s.Set(sectionPosition, int64(*r.Position))
	} else {
		s.Delete(sectionPosition)
	}

	return nil
}
