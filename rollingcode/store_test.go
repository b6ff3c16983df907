package rollingcode

import (
	"github.com/stretchr/testify/assert"
	"sync"
	"testing"
)

func TestStore_Current(t *testing.T) {
	t.Run("returns the default for an unknown device", func(t *testing.T) {
		s := NewStore()

		assert.Equal(t, State{Key: 1, Code: 0}, s.Current("112233"))
	})

	t.Run("returns a seeded state", func(t *testing.T) {
		s := NewStore()
		s.Seed("112233", State{Key: 9, Code: 0x1234})

		assert.Equal(t, State{Key: 9, Code: 0x1234}, s.Current("112233"))
	})

	t.Run("does not advance when inspected", func(t *testing.T) {
		s := NewStore()

		s.Current("112233")
		s.Current("112233")

		assert.Equal(t, Default, s.Current("112233"))
	})
}

func TestStore_Advance(t *testing.T) {
	t.Run("increments key and code by exactly one", func(t *testing.T) {
		s := NewStore()

		next := s.Advance("112233")

		assert.Equal(t, State{Key: 2, Code: 1}, next)
		assert.Equal(t, next, s.Current("112233"))
	})

	t.Run("only affects the device advanced", func(t *testing.T) {
		s := NewStore()

		s.Advance("112233")

		assert.Equal(t, Default, s.Current("445566"))
	})

	t.Run("key returns to its start after 16 advances while the code moved by 16", func(t *testing.T) {
		s := NewStore()
		start := State{Key: 5, Code: 100}
		s.Seed("112233", start)

		for i := 0; i < 16; i++ {
			s.Advance("112233")
		}

		assert.Equal(t, State{Key: 5, Code: 116}, s.Current("112233"))
	})

	t.Run("code wraps after 65536 advances with the key cycling 4096 times", func(t *testing.T) {
		s := NewStore()
		start := State{Key: 3, Code: 0xFFF0}
		s.Seed("112233", start)

		keyCycles := 0

		for i := 0; i < 0x10000; i++ {
			if s.Advance("112233").Key == start.Key {
				keyCycles++
			}
		}

		assert.Equal(t, start, s.Current("112233"))
		assert.Equal(t, 4096, keyCycles)
	})

	t.Run("each advance moves both fields by one modulo their range", func(t *testing.T) {
		s := NewStore()
		s.Seed("112233", State{Key: 0xF, Code: 0xFFFF})

		previous := s.Current("112233")

		for i := 0; i < 64; i++ {
			next := s.Advance("112233")

			assert.Equal(t, (previous.Key+1)%16, next.Key)
			assert.Equal(t, previous.Code+1, next.Code)

			previous = next
		}
	})

	t.Run("concurrent advances are never lost", func(t *testing.T) {
		s := NewStore()

		wg := &sync.WaitGroup{}

		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.Advance("112233")
			}()
		}

		wg.Wait()

		assert.Equal(t, State{Key: 1, Code: 32}, s.Current("112233"))
	})
}
