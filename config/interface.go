package config

type InterfaceConfig struct {
	Name   string `json:"-"`
	Type   string
	Config any
}

func (g *InterfaceConfig) UnmarshalJSON(data []byte) (err error) {
	g.Type, g.Config, err = unmarshalTyped(data, "interface", map[string]func() any{
		"http": func() any { return &HTTPInterfaceConfig{} },
		"mqtt": func() any { return &MQTTInterfaceConfig{} },
		"nats": func() any { return &NATSInterfaceConfig{} },
	})

	return
}

type HTTPInterfaceConfig struct {
	Port        int
	EnabledAPIs []string

	Authentication AuthenticationConfig
	CORS           *CORSConfig
	// Advertise announces the HTTP interface over mDNS when set.
	Advertise *AdvertiseConfig
}

type AuthenticationConfig struct {
	Type   string
	Config any
}

func (a *AuthenticationConfig) UnmarshalJSON(data []byte) (err error) {
	a.Type, a.Config, err = unmarshalTyped(data, "authentication", map[string]func() any{
		"none":     func() any { return &NoAuthentication{} },
		"external": func() any { return &ExternalAuthentication{Header: "X-Forwarded-User"} },
		"jwt":      func() any { return &JWTAuthentication{Key: "jwt.pem", TTL: 3600} },
	})

	return
}

type NoAuthentication struct{}

type ExternalAuthentication struct {
	Header string
}

type JWTAuthentication struct {
	// Key is the PEM file holding the signing key, created when missing. Relative paths are within
	// the interface data directory.
	Key string
	// TTL of issued tokens in seconds.
	TTL int
	// Users maps user names to bcrypt password hashes.
	Users map[string]string
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowCredentials bool
}

type AdvertiseConfig struct {
	Instance string
}

type MQTTInterfaceConfig struct {
	Server string

	TLS         *MQTTTLS
	Credentials *MQTTCredentials

	Retained    bool
	QOS         byte
	TopicPrefix string

	PublishStateOnConnect  bool
	PublishAggregatedState bool
	PublishIndividualState bool
}

type MQTTTLS struct {
	IgnoreSystemRootCertificates bool
	SkipCertificateVerification  bool
	Key                          string
	Cert                         string
	CACert                       string
}

type MQTTCredentials struct {
	Username string
	Password string
}

type NATSInterfaceConfig struct {
	Server        string
	SubjectPrefix string
	// Credentials is a NATS user credentials file, relative paths are within the interface data
	// directory.
	Credentials string
}
