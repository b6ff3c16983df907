package config

const (
	DefaultRedisPrefix   = "somfycul:"
	DefaultPostgresTable = "somfycul_state"
)

type StateConfig struct {
	Name   string `json:"-"`
	Type   string
	Config any
}

func (s *StateConfig) UnmarshalJSON(data []byte) (err error) {
	s.Type, s.Config, err = unmarshalTyped(data, "state", map[string]func() any{
		"memory":   func() any { return &MemoryState{} },
		"file":     func() any { return &FileState{} },
		"redis":    func() any { return &RedisState{Prefix: DefaultRedisPrefix} },
		"postgres": func() any { return &PostgresState{Table: DefaultPostgresTable} },
	})

	return
}

type MemoryState struct{}

type FileState struct {
	// Directory holding one file per cover, relative paths are within the data directory.
	Directory string
}

type RedisState struct {
	Address  string
	Password string
	DB       int
	Prefix   string
}

type PostgresState struct {
	DSN   string
	Table string
}
