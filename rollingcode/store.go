package rollingcode

import "sync"

// State is the rolling security state shared with an RTS receiver.
type State struct {
	Key  uint8
	Code uint16
}

// Default is the state of a remote identity that has never transmitted.
var Default = State{Key: 1, Code: 0}

// Next returns the state following s, the key wrapping at 16 and the code at 65536.
func (s State) Next() State {
	return State{
		Key:  (s.Key + 1) % 0x10,
		Code: s.Code + 1,
	}
}

// Store holds the rolling security state of every device address in use.
type Store struct {
	lock   sync.Mutex
	states map[string]State
}

func NewStore() *Store {
	return &Store{states: map[string]State{}}
}

// Current returns the state frames for id must be encoded with next.
func (s *Store) Current(id string) State {
	s.lock.Lock()
	defer s.lock.Unlock()

	if state, found := s.states[id]; found {
		return state
	}

	return Default
}

// Advance moves id to its next state and returns it. It must be called once for every frame handed
// to a transport, whatever the transport reported.
func (s *Store) Advance(id string) State {
	s.lock.Lock()
	defer s.lock.Unlock()

	state, found := s.states[id]
	if !found {
		state = Default
	}

	state = state.Next()
	s.states[id] = state

	return state
}

// Seed installs a state, typically one restored from persistence.
func (s *Store) Seed(id string, state State) {
	s.lock.Lock()
	defer s.lock.Unlock()

	state.Key = state.Key % 0x10
	s.states[id] = state
}
