// Package mqtt publishes dispatch events to an MQTT broker so that machine
// consumers (station displays, CAD bridges) can follow the live state.
package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/omnidispatch/core/logger"
	"github.com/kilianp07/omnidispatch/core/monitoring"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Enabled     bool   `json:"enabled"`
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	UseTLS      bool   `json:"use_tls"`
	ClientCert  string `json:"client_cert"`
	ClientKey   string `json:"client_key"`
	CABundle    string `json:"ca_bundle"`
	AuthMethod  string `json:"auth_method"`
	// QoS is keyed by event kind; "default" applies to the others.
	QoS        map[string]byte `json:"qos"`
	LWTTopic   string          `json:"lwt_topic"`
	LWTPayload string          `json:"lwt_payload"`
	LWTQoS     byte            `json:"lwt_qos"`
	LWTRetain  bool            `json:"lwt_retain"`
	MaxRetries int             `json:"max_retries"`
	BackoffMS  int             `json:"backoff_ms"`
	QueueSize  int             `json:"queue_size"`
	TLSConfig  *tls.Config     `json:"-"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "omnidispatch"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "omnidispatch/events"
	}
	if c.LWTTopic == "" {
		c.LWTTopic = "omnidispatch/status"
	}
	if c.LWTPayload == "" {
		c.LWTPayload = "offline"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
}

// Validate checks the configuration when publishing is enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return errors.New("mqtt.broker is required")
	}
	switch c.AuthMethod {
	case "", "username_password", "certificate", "both":
	default:
		return fmt.Errorf("mqtt.auth_method %q is invalid", c.AuthMethod)
	}
	for k, q := range c.QoS {
		if q > 2 {
			return fmt.Errorf("mqtt.qos[%s] must be 0, 1 or 2", k)
		}
	}
	return nil
}

func (c Config) qos(kind string) byte {
	if q, ok := c.QoS[kind]; ok {
		return q
	}
	return c.QoS["default"]
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// Publisher sends a payload to a topic.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// PahoClient implements Publisher using Eclipse Paho.
type PahoClient struct {
	cli        pahoClient
	logger     logger.Logger
	maxRetries int
	backoff    time.Duration
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoClient connects to the broker and announces itself on the status
// topic.
func NewPahoClient(cfg Config, log logger.Logger) (*PahoClient, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log = logger.OrNop(log)
	pc := &PahoClient{
		logger:     log,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if cfg.LWTTopic == "" {
			return
		}
		if token := c.Publish(cfg.LWTTopic, cfg.LWTQoS, cfg.LWTRetain, "online"); token.Wait() && token.Error() != nil {
			log.Errorf("status publish error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	pc.cli = c
	return pc, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// Publish sends payload, retrying with exponential backoff. The final
// failure is reported to the error monitor.
func (p *PahoClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	retries := p.maxRetries
	if retries <= 0 {
		retries = 3
	}
	backoff := p.backoff
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	var publishErr error
	for attempt := 0; attempt <= retries; attempt++ {
		token := p.cli.Publish(topic, qos, retained, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Debugf("published %d bytes to %s", len(payload), topic)
			return nil
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt < retries {
			time.Sleep(backoff * time.Duration(1<<attempt))
		}
	}
	monitoring.CaptureException(publishErr, map[string]string{"module": "mqtt", "topic": topic})
	return publishErr
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoClient) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
