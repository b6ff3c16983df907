package config

const (
	DefaultSerialPort = "/dev/ttyAMA0"
	DefaultSerialBaud = 38400
)

type TransportConfig struct {
	Name   string `json:"-"`
	Type   string
	Config any
}

func (t *TransportConfig) UnmarshalJSON(data []byte) (err error) {
	t.Type, t.Config, err = unmarshalTyped(data, "transport", map[string]func() any{
		"cul": func() any {
			cfg := &CULTransport{}
			cfg.Port.Name = DefaultSerialPort
			cfg.Port.Baud = DefaultSerialBaud
			return cfg
		},
		"dryrun": func() any { return &DryRunTransport{} },
	})

	return
}

type CULTransport struct {
	Port struct {
		Name string
		Baud int
	}

	// CheckVersion queries the firmware version when the port is opened, failing start up if the
	// CUL does not answer.
	CheckVersion bool
}

type DryRunTransport struct{}
