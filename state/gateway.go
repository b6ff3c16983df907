package state

import (
	"context"
	"fmt"
	"github.com/shimmeringbee/somfycul/rollingcode"
	"sync"
)

// Record is everything persisted for one device identity.
type Record struct {
	Rolling  rollingcode.State
	Position *int
}

// Gateway loads and saves records. Saving a record replaces any previous record for that identity
// and leaves every other identity untouched.
type Gateway interface {
	Load(ctx context.Context, id string) (Record, bool, error)
	Save(ctx context.Context, id string, r Record) error
}

type PersistenceError string

func (e PersistenceError) Error() string {
	return string(e)
}

const (
	ErrPersistenceFailure = PersistenceError("persistence failure")
	ErrInvalidRecord      = PersistenceError("invalid persisted record")
	ErrInvalidIdentity    = PersistenceError("invalid device identity")
)

func validateRecord(key int64, code int64, position *int) error {
	if key < 0 || key > 0xF {
		return fmt.Errorf("%w: key %d out of range", ErrInvalidRecord, key)
	}

	if code < 0 || code > 0xFFFF {
		return fmt.Errorf("%w: rolling code %d out of range", ErrInvalidRecord, code)
	}

	if position != nil && (*position < 0 || *position > 100) {
		return fmt.Errorf("%w: position %d out of range", ErrInvalidRecord, *position)
	}

	return nil
}

// identityLocks serialises access per device identity.
type identityLocks struct {
	locks sync.Map
}

func (l *identityLocks) lock(id string) func() {
	m, _ := l.locks.LoadOrStore(id, &sync.Mutex{})
	mutex := m.(*sync.Mutex)

	mutex.Lock()
	return mutex.Unlock
}
