package config

type LoggingConfig struct {
	Name   string `json:"-"`
	Type   string
	Config any
}

func (g *LoggingConfig) UnmarshalJSON(data []byte) (err error) {
	g.Type, g.Config, err = unmarshalTyped(data, "logging", map[string]func() any{
		"stdout": func() any { return &StdoutLogging{} },
		"file":   func() any { return &FileLogging{} },
	})

	return
}

type BaseLogging struct {
	Level string

	NegateSubsystems bool
	Subsystems       []string
}

type StdoutLogging struct {
	BaseLogging
}

type FileLogging struct {
	BaseLogging

	Filename string
	// Size in megabytes before the file is rotated.
	Size  int
	Count int
	// MaxAge in days that rotated files are retained, zero keeps them indefinitely.
	MaxAge   int
	Compress bool
}
