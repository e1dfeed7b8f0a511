// Package notify implements outbound schedule notifications over MQTT using
// Eclipse Paho.
package notify

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/4Lajf/grafikonator-6000/core/events"
	corenotify "github.com/4Lajf/grafikonator-6000/core/notify"
	"github.com/4Lajf/grafikonator-6000/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT publisher.
type Config struct {
	Broker      string      `json:"broker" koanf:"broker"`
	ClientID    string      `json:"client_id" koanf:"client_id"`
	Username    string      `json:"username" koanf:"username"`
	Password    string      `json:"password" koanf:"password"`
	TopicPrefix string      `json:"topic_prefix" koanf:"topic_prefix"`
	QoS         byte        `json:"qos" koanf:"qos"`
	UseTLS      bool        `json:"use_tls" koanf:"use_tls"`
	ClientCert  string      `json:"client_cert" koanf:"client_cert"`
	ClientKey   string      `json:"client_key" koanf:"client_key"`
	CABundle    string      `json:"ca_bundle" koanf:"ca_bundle"`
	MaxRetries  int         `json:"max_retries" koanf:"max_retries"`
	BackoffMS   int         `json:"backoff_ms" koanf:"backoff_ms"`
	TLSConfig   *tls.Config `json:"-" koanf:"-"`
}

// SetDefaults fills in zero values.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "grafikonator"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "schedule"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
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

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// PahoPublisher publishes scheduling events to an MQTT broker.
type PahoPublisher struct {
	cli        pahoClient
	prefix     string
	qos        byte
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
}

var _ corenotify.Publisher = (*PahoPublisher)(nil)

// NewPahoPublisher connects to the MQTT broker.
func NewPahoPublisher(cfg Config) (*PahoPublisher, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_notifier")
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected")
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
	return &PahoPublisher{
		cli:        c,
		prefix:     cfg.TopicPrefix,
		qos:        cfg.QoS,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:        log,
	}, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

// PublishAssignment publishes a committed assignment to
// <prefix>/assignment.
func (p *PahoPublisher) PublishAssignment(ctx context.Context, ev events.AssignmentEvent) error {
	return p.publish(ctx, p.prefix+"/assignment", ev)
}

// PublishAssignmentFailed publishes an unfilled pair to
// <prefix>/assignment_failed.
func (p *PahoPublisher) PublishAssignmentFailed(ctx context.Context, ev events.AssignmentFailedEvent) error {
	return p.publish(ctx, p.prefix+"/assignment_failed", ev)
}

// PublishBatchCompleted publishes a run summary to <prefix>/batch_completed.
func (p *PahoPublisher) PublishBatchCompleted(ctx context.Context, ev events.BatchCompletedEvent) error {
	return p.publish(ctx, p.prefix+"/batch_completed", ev)
}

func (p *PahoPublisher) publish(ctx context.Context, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		token := p.cli.Publish(topic, p.qos, false, data)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			return nil
		}
		p.log.Errorf("publish to %s attempt %d failed: %v", topic, attempt+1, publishErr)
		time.Sleep(p.backoff * time.Duration(1<<attempt))
	}
	return publishErr
}

// Close gracefully closes the MQTT connection.
func (p *PahoPublisher) Close() error {
	p.cli.Disconnect(250)
	return nil
}
