package gateway

import (
	"fmt"
	"github.com/shimmeringbee/somfycul/cover"
	"sort"
	"strings"
	"sync"
)

// Mapper resolves covers for the interfaces.
type Mapper interface {
	Covers() []cover.Device
	Cover(string) (cover.Device, bool)
}

var _ Mapper = (*Mux)(nil)

// Mux is the registry of configured covers. Identifiers are hex addresses and match regardless of
// case.
type Mux struct {
	lock sync.RWMutex

	coverByIdentifier map[string]cover.Device
}

func NewMux() *Mux {
	return &Mux{
		coverByIdentifier: map[string]cover.Device{},
	}
}

func (m *Mux) Add(d cover.Device) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	id := d.Identifier()
	key := strings.ToUpper(id)

	if existing, found := m.coverByIdentifier[key]; found {
		return fmt.Errorf("cover '%s' already uses address '%s'", existing.Info().Name, id)
	}

	m.coverByIdentifier[key] = d
	return nil
}

func (m *Mux) Cover(id string) (cover.Device, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	d, found := m.coverByIdentifier[strings.ToUpper(id)]
	return d, found
}

// Covers returns every cover, ordered by identifier.
func (m *Mux) Covers() []cover.Device {
	m.lock.RLock()
	defer m.lock.RUnlock()

	result := make([]cover.Device, 0, len(m.coverByIdentifier))
	for _, d := range m.coverByIdentifier {
		result = append(result, d)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Identifier() < result[j].Identifier()
	})

	return result
}
