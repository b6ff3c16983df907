package main

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-chi/cors"
	gorillamux "github.com/gorilla/mux"
	"github.com/grandcat/zeroconf"
	natsgo "github.com/nats-io/nats.go"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/nest"
	"github.com/shimmeringbee/somfycul/config"
	"github.com/shimmeringbee/somfycul/gateway"
	"github.com/shimmeringbee/somfycul/interface/http/auth"
	"github.com/shimmeringbee/somfycul/interface/http/auth/external"
	"github.com/shimmeringbee/somfycul/interface/http/auth/jwt"
	"github.com/shimmeringbee/somfycul/interface/http/auth/null"
	"github.com/shimmeringbee/somfycul/interface/http/pprof"
	"github.com/shimmeringbee/somfycul/interface/http/v1"
	"github.com/shimmeringbee/somfycul/interface/mqtt"
	"github.com/shimmeringbee/somfycul/interface/nats"
	"net/http"
	url2 "net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

type StartedInterface struct {
	Name     string
	Shutdown func() error
}

const DefaultMQTTEventDuration = 1 * time.Second

const (
	SystemIdentifier       = "somfycul"
	DefaultZeroconfService = "_somfycul._tcp"
	DefaultZeroconfDomain  = "local."
)

func loadInterfaceConfigurations(dir string) ([]config.InterfaceConfig, error) {
	return loadConfigurations(dir, "interface", func(name string) *config.InterfaceConfig {
		return &config.InterfaceConfig{Name: name}
	})
}

func startInterfaces(cfgs []config.InterfaceConfig, g *gateway.Mux, bus gateway.EventSubscriber, directories Directories, l logwrap.Logger) ([]StartedInterface, error) {
	var retIntfs []StartedInterface

	for _, cfg := range cfgs {
		dataDir := filepath.Join(directories.Data, "interfaces", cfg.Name)

		if err := os.MkdirAll(dataDir, DefaultDirectoryPermissions); err != nil {
			return retIntfs, fmt.Errorf("failed to create interface data directory '%s': %w", dataDir, err)
		}

		shutdown, err := startInterface(cfg, g, bus, dataDir, l)
		if err != nil {
			return retIntfs, fmt.Errorf("failed to start interface '%s': %w", cfg.Name, err)
		}

		retIntfs = append(retIntfs, StartedInterface{
			Name:     cfg.Name,
			Shutdown: shutdown,
		})
	}

	return retIntfs, nil
}

func startInterface(cfg config.InterfaceConfig, g *gateway.Mux, bus gateway.EventSubscriber, dataDir string, l logwrap.Logger) (func() error, error) {
	wl := logwrap.New(nest.Wrap(l))
	wl.AddOptionsToLogger(logwrap.Datum("interface", cfg.Name))

	switch iCfg := cfg.Config.(type) {
	case *config.HTTPInterfaceConfig:
		wl.AddOptionsToLogger(logwrap.Source("http"))
		return startHTTPInterface(*iCfg, g, bus, dataDir, wl)
	case *config.MQTTInterfaceConfig:
		wl.AddOptionsToLogger(logwrap.Source("mqtt"))
		return startMQTTInterface(*iCfg, g, bus, wl)
	case *config.NATSInterfaceConfig:
		wl.AddOptionsToLogger(logwrap.Source("nats"))
		return startNATSInterface(*iCfg, g, bus, dataDir, wl)
	default:
		return nil, fmt.Errorf("unknown interface type loaded: %s", cfg.Type)
	}
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}

	return false
}

func constructAuthenticationProvider(cfg config.AuthenticationConfig, dataDir string) (auth.AuthenticationProvider, error) {
	switch aCfg := cfg.Config.(type) {
	case nil, *config.NoAuthentication:
		return null.Authenticator{}, nil
	case *config.ExternalAuthentication:
		return external.Authenticator{UserHeader: aCfg.Header}, nil
	case *config.JWTAuthentication:
		key, kid, err := jwt.LoadOrCreateKey(resolvePath(dataDir, aCfg.Key))
		if err != nil {
			return nil, fmt.Errorf("failed to load jwt signing key: %w", err)
		}

		return jwt.Authenticator{
			SystemIdentifier: SystemIdentifier,
			TTL:              time.Duration(aCfg.TTL) * time.Second,
			KeyIdentifier:    kid,
			PrivateKey:       key,
			Users:            aCfg.Users,
		}, nil
	default:
		return nil, fmt.Errorf("unknown authentication type loaded: %s", cfg.Type)
	}
}

func constructHTTPHandler(cfg config.HTTPInterfaceConfig, g *gateway.Mux, bus gateway.EventSubscriber, ap auth.AuthenticationProvider, l logwrap.Logger) http.Handler {
	r := gorillamux.NewRouter()

	if containsString(cfg.EnabledAPIs, "pprof") {
		l.LogInfo(context.Background(), "Mounting pprof endpoint on /debug/pprof.")
		r.PathPrefix("/debug/pprof").Handler(http.StripPrefix("/debug/pprof", pprof.ConstructRouter(ap)))
	}

	if containsString(cfg.EnabledAPIs, "v1") {
		l.LogInfo(context.Background(), "Mounting v1 API endpoint on /api/v1.")

		v1Router := v1.ConstructRouter(g, l, ap, bus)
		r.PathPrefix("/api/v1").Handler(http.StripPrefix("/api/v1", v1Router))
	}

	if cfg.CORS == nil {
		return r
	}

	l.LogInfo(context.Background(), "Enabling CORS.", logwrap.Datum("origins", cfg.CORS.AllowedOrigins))

	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           300,
	})(r)
}

func startHTTPInterface(cfg config.HTTPInterfaceConfig, g *gateway.Mux, bus gateway.EventSubscriber, dataDir string, l logwrap.Logger) (func() error, error) {
	ap, err := constructAuthenticationProvider(cfg.Authentication, dataDir)
	if err != nil {
		return nil, err
	}

	l.LogInfo(context.Background(), "Constructed authentication provider.", logwrap.Datum("type", cfg.Authentication.Type))

	bindAddress := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: bindAddress, Handler: constructHTTPHandler(cfg, g, bus, ap, l)}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.LogError(context.Background(), "Failed to start http server.", logwrap.Err(err))
		}
	}()

	var advertisement *zeroconf.Server

	if cfg.Advertise != nil {
		instance := cfg.Advertise.Instance
		if len(instance) == 0 {
			instance = SystemIdentifier
		}

		advertisement, err = zeroconf.Register(instance, DefaultZeroconfService, DefaultZeroconfDomain, cfg.Port, []string{"api=/api/v1"}, nil)
		if err != nil {
			l.LogWarn(context.Background(), "Failed to advertise http interface over mDNS.", logwrap.Err(err))
		} else {
			l.LogInfo(context.Background(), "Advertising http interface over mDNS.", logwrap.Datum("instance", instance), logwrap.Datum("service", DefaultZeroconfService))
		}
	}

	return func() error {
		if advertisement != nil {
			advertisement.Shutdown()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return srv.Shutdown(ctx)
	}, nil
}

func awaitToken(ctx context.Context, token pahomqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return context.DeadlineExceeded
	}
}

func startMQTTInterface(cfg config.MQTTInterfaceConfig, g *gateway.Mux, bus gateway.EventSubscriber, l logwrap.Logger) (func() error, error) {
	clientId, err := randomClientID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate random client id: %w", err)
	}

	l.LogInfo(context.Background(), "Constructing new MQTT client.", logwrap.Datum("clientId", clientId), logwrap.Datum("server", cfg.Server))

	clientOptions := pahomqtt.NewClientOptions()
	clientOptions.ClientID = clientId

	if url, err := url2.Parse(cfg.Server); err != nil {
		l.LogError(context.Background(), "Failed to parse MQTT server URL.", logwrap.Err(err))
		return nil, err
	} else {
		clientOptions.Servers = []*url2.URL{url}
	}

	i := &mqtt.Interface{Mapper: g, EventSubscriber: bus, Logger: l, PublishStateOnConnect: cfg.PublishStateOnConnect, PublishIndividualState: cfg.PublishIndividualState, PublishAggregatedState: cfg.PublishAggregatedState}

	lastWillTopic := prefixTopic(cfg.TopicPrefix, "controller/online")

	clientOptions.OnConnect = func(client pahomqtt.Client) {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultMQTTEventDuration)
		defer cancel()

		l.LogInfo(ctx, "MQTT client successfully connected.", logwrap.Datum("clientId", clientId), logwrap.Datum("server", cfg.Server))

		subTopic := prefixTopic(cfg.TopicPrefix, "covers/+/+/invoke")
		subscribeToken := client.Subscribe(subTopic, cfg.QOS, func(client pahomqtt.Client, message pahomqtt.Message) {
			ctx, cancel := context.WithTimeout(context.Background(), DefaultMQTTEventDuration)
			defer cancel()

			if err := i.IncomingMessage(ctx, stripPrefixTopic(cfg.TopicPrefix, message.Topic()), message.Payload()); err != nil {
				l.LogError(ctx, "Failed to handle incoming message.", logwrap.Datum("topic", message.Topic()), logwrap.Err(err))
			}
		})

		if err := awaitToken(ctx, subscribeToken); err != nil {
			l.LogError(ctx, "Failed to subscribe to topic in MQTT.", logwrap.Datum("topic", subTopic), logwrap.Err(err))
		}

		client.Publish(lastWillTopic, cfg.QOS, cfg.Retained, `true`)

		if err := i.Connected(context.Background(), func(ctx context.Context, topic string, payload []byte) error {
			prefixedTopic := prefixTopic(cfg.TopicPrefix, topic)

			token := client.Publish(prefixedTopic, cfg.QOS, cfg.Retained, payload)
			if err := awaitToken(ctx, token); err != nil {
				l.LogError(ctx, "Failed to publish message to MQTT.", logwrap.Datum("topic", prefixedTopic), logwrap.Err(err))
				return err
			}

			return nil
		}); err != nil {
			l.LogError(context.Background(), "Failed to execute connection handler in MQTT interface.", logwrap.Err(err))
		}
	}

	clientOptions.SetConnectionLostHandler(func(client pahomqtt.Client, err error) {
		l.LogInfo(context.Background(), "MQTT client disconnected.", logwrap.Datum("clientId", clientId), logwrap.Datum("server", cfg.Server), logwrap.Err(err))
		i.Disconnected()
	})

	clientOptions.SetWill(lastWillTopic, `false`, cfg.QOS, cfg.Retained)

	if cfg.Credentials != nil {
		clientOptions.SetUsername(cfg.Credentials.Username)
		clientOptions.SetPassword(cfg.Credentials.Password)
	}

	if cfg.TLS != nil {
		tlsConfig, err := constructMQTTTLS(*cfg.TLS, l)
		if err != nil {
			return nil, err
		}

		clientOptions.SetTLSConfig(tlsConfig)
	}

	i.Start()

	client := pahomqtt.NewClient(clientOptions)
	stopConnecting := make(chan struct{})

	go func() {
		ctx := context.Background()

		retry := time.NewTicker(1 * time.Second)
		defer retry.Stop()

		for {
			select {
			case <-retry.C:
				if token := client.Connect(); token.Wait() && token.Error() != nil {
					l.LogError(ctx, "Failed initial connection to MQTT server.", logwrap.Datum("clientId", clientId), logwrap.Datum("server", cfg.Server), logwrap.Err(token.Error()))
				} else {
					l.LogInfo(ctx, "Initial MQTT connection call completed.", logwrap.Datum("clientId", clientId), logwrap.Datum("server", cfg.Server))
					return
				}
			case <-stopConnecting:
				return
			}
		}
	}()

	return func() error {
		close(stopConnecting)
		client.Disconnect(1500)
		i.Stop()
		return nil
	}, nil
}

func constructMQTTTLS(cfg config.MQTTTLS, l logwrap.Logger) (*tls.Config, error) {
	tlsConfig := &tls.Config{InsecureSkipVerify: cfg.SkipCertificateVerification}

	if cfg.SkipCertificateVerification {
		l.LogWarn(context.Background(), "Set to ignore remote TLS certificate, this is considered insecure.")
	}

	if len(cfg.Cert) > 0 {
		cert, err := tls.LoadX509KeyPair(cfg.Cert, cfg.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS certificate/key for mqtt: %w", err)
		}

		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	var certPool *x509.CertPool

	if cfg.IgnoreSystemRootCertificates {
		l.LogInfo(context.Background(), "Configured to ignore system root certificates, ensure you are providing your own.")
		certPool = x509.NewCertPool()
	} else {
		var err error

		certPool, err = x509.SystemCertPool()
		if err != nil {
			if runtime.GOOS == "windows" {
				l.LogWarn(context.Background(), "Failed to load system certificate pool for root CAs, you must provide the CA root certificate for your servers trust chain.", logwrap.Err(err))
				certPool = x509.NewCertPool()
			} else {
				l.LogError(context.Background(), "Failed to load system certificate pool for root CAs, you may disable loading system certificates by setting $.Config.TLS.IgnoreSystemRootCertificates and provide your own CA certificate.", logwrap.Err(err))
				return nil, fmt.Errorf("failed to load system certificate pool: %w", err)
			}
		}
	}

	if len(cfg.CACert) > 0 {
		caCerts, err := os.ReadFile(filepath.Clean(cfg.CACert))
		if err != nil {
			return nil, fmt.Errorf("failed to load CA TLS certificates for mqtt: %w", err)
		}

		certPool.AppendCertsFromPEM(caCerts)
	}

	tlsConfig.RootCAs = certPool

	return tlsConfig, nil
}

func prefixTopic(topicPrefix string, topic string) string {
	if len(topicPrefix) > 0 {
		return fmt.Sprintf("%s/%s", topicPrefix, topic)
	}

	return topic
}

func stripPrefixTopic(topicPrefix string, topic string) string {
	if len(topicPrefix) > 0 {
		if strings.HasPrefix(topic, topicPrefix) {
			return topic[len(topicPrefix):]
		}
	}

	return topic
}

func randomClientID() (string, error) {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func startNATSInterface(cfg config.NATSInterfaceConfig, g *gateway.Mux, bus gateway.EventSubscriber, dataDir string, l logwrap.Logger) (func() error, error) {
	options := []natsgo.Option{
		natsgo.Name(SystemIdentifier),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			l.LogWarn(context.Background(), "NATS connection lost.", logwrap.Datum("server", cfg.Server), logwrap.Err(err))
		}),
		natsgo.ReconnectHandler(func(_ *natsgo.Conn) {
			l.LogInfo(context.Background(), "NATS connection restored.", logwrap.Datum("server", cfg.Server))
		}),
	}

	if len(cfg.Credentials) > 0 {
		options = append(options, natsgo.UserCredentials(resolvePath(dataDir, cfg.Credentials)))
	}

	nc, err := natsgo.Connect(cfg.Server, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats '%s': %w", cfg.Server, err)
	}

	i := &nats.Interface{Mapper: g, EventSubscriber: bus, Logger: l, SubjectPrefix: cfg.SubjectPrefix}

	sub, err := i.Attach(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to subscribe to cover subjects: %w", err)
	}

	i.Start()

	l.LogInfo(context.Background(), "NATS interface connected.", logwrap.Datum("server", cfg.Server), logwrap.Datum("subject", sub.Subject))

	return func() error {
		i.Stop()
		return nc.Drain()
	}, nil
}
