package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	// Supported publisher types.
	TypeQueue = "queue"
	TypeHTTP  = "http"

	// Supported queue providers.
	QueueProviderAWSSQS = "aws-sqs"
	QueueProviderAWSSNS = "aws-sns"
	QueueProviderGCP    = "gcp"

	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

// ErrInvalidConfig is returned when a publishers file entry fails validation.
var ErrInvalidConfig = errors.New("invalid publisher config")

// configFile represents the structure of the publishers configuration file.
type configFile struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
}

// PublisherConfig is one sink declared in the publishers file.
type PublisherConfig struct {
	ID      string                `json:"id" yaml:"id"`
	Type    string                `json:"type" yaml:"type"`
	Enabled *bool                 `json:"enabled" yaml:"enabled"`
	Queue   *QueuePublisherConfig `json:"queue" yaml:"queue"`
	HTTP    *HTTPPublisherConfig  `json:"http" yaml:"http"`
}

// QueuePublisherConfig selects a cloud queue provider.
type QueuePublisherConfig struct {
	Provider string                 `json:"provider" yaml:"provider"`
	SQS      *AWSSQSPublisherConfig `json:"sqs" yaml:"sqs"`
	SNS      *AWSSNSPublisherConfig `json:"sns" yaml:"sns"`
	GCP      *GCPQueueConfig        `json:"gcp" yaml:"gcp"`
}

// AWSCredentials are optional static keys. When both are empty the default
// AWS credential chain is used.
type AWSCredentials struct {
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

// AWSSQSPublisherConfig holds AWS SQS specific settings.
type AWSSQSPublisherConfig struct {
	QueueURL       string `json:"uri" yaml:"uri"`
	Region         string `json:"region" yaml:"region"`
	AWSCredentials `json:",inline" yaml:",inline"`
}

// AWSSNSPublisherConfig holds AWS SNS specific settings.
type AWSSNSPublisherConfig struct {
	TopicARN       string `json:"topic_arn" yaml:"topic_arn"`
	Region         string `json:"region" yaml:"region"`
	AWSCredentials `json:",inline" yaml:",inline"`
}

// GCPQueueConfig holds the minimal Pub/Sub topic settings.
type GCPQueueConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// HTTPPublisherConfig holds webhook settings.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// ConfigRegistry holds the publisher definitions loaded from a file.
type ConfigRegistry struct {
	mu         sync.RWMutex
	publishers []PublisherConfig
	idx        map[string]PublisherConfig
}

// LoadRegistry loads publisher definitions from a YAML or JSON file.
// ${VAR} references are expanded from the environment before decoding so
// secrets can stay out of the file.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	expanded := []byte(os.ExpandEnv(string(raw)))

	fileReg, err := parsePublisherRegistry(expanded, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(fileReg.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	reg := &ConfigRegistry{
		publishers: make([]PublisherConfig, len(fileReg.Publishers)),
		idx:        make(map[string]PublisherConfig, len(fileReg.Publishers)),
	}

	for i := range fileReg.Publishers {
		cfg := sanitizePublisherConfig(fileReg.Publishers[i])
		if err := validatePublisherConfig(cfg); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, exists := reg.idx[cfg.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate publisher id %q", ErrInvalidConfig, cfg.ID)
		}
		reg.publishers[i] = cfg
		reg.idx[cfg.ID] = cfg
	}

	return reg, nil
}

// parsePublisherRegistry decodes the file with the decoder matching ext, or
// with each known decoder in turn when the extension is unknown.
func parsePublisherRegistry(data []byte, ext string) (configFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	known := false
	for _, d := range decoders {
		if d.ext == ext {
			known = true
		}
	}

	var lastErr error
	for _, d := range decoders {
		if known && ext != d.ext {
			continue
		}
		var reg configFile
		if err := d.fn(data, &reg); err != nil {
			lastErr = fmt.Errorf("decode %s publishers: %w", d.name, err)
			continue
		}
		return reg, nil
	}
	if lastErr != nil {
		return configFile{}, lastErr
	}
	return configFile{}, errors.New("publishers file format not recognized (expected YAML or JSON)")
}

// sanitizePublisherConfig trims and normalizes the publisher config fields.
func sanitizePublisherConfig(cfg PublisherConfig) PublisherConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))

	if cfg.Enabled == nil {
		def := true
		cfg.Enabled = &def
	}
	if cfg.Queue != nil {
		qc := *cfg.Queue
		qc.Provider = strings.ToLower(strings.TrimSpace(qc.Provider))
		if qc.SQS != nil {
			a := *qc.SQS
			a.QueueURL = strings.TrimSpace(a.QueueURL)
			a.Region = strings.TrimSpace(a.Region)
			a.AWSCredentials = a.AWSCredentials.trimmed()
			qc.SQS = &a
		}
		if qc.SNS != nil {
			s := *qc.SNS
			s.TopicARN = strings.TrimSpace(s.TopicARN)
			s.Region = strings.TrimSpace(s.Region)
			s.AWSCredentials = s.AWSCredentials.trimmed()
			qc.SNS = &s
		}
		if qc.GCP != nil {
			g := *qc.GCP
			g.ProjectID = strings.TrimSpace(g.ProjectID)
			g.Topic = strings.TrimSpace(g.Topic)
			g.CredentialsFile = strings.TrimSpace(g.CredentialsFile)
			qc.GCP = &g
		}
		cfg.Queue = &qc
	}
	if cfg.HTTP != nil {
		c := *cfg.HTTP
		c.URL = strings.TrimSpace(c.URL)
		c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
		if c.Method == "" {
			c.Method = httpDefaultMethod
		}
		c.Headers = sanitizeHeaders(c.Headers)
		if c.TimeoutSeconds <= 0 {
			c.TimeoutSeconds = httpDefaultTimeoutSeconds
		}
		cfg.HTTP = &c
	}

	return cfg
}

func (c AWSCredentials) trimmed() AWSCredentials {
	c.AccessKeyID = strings.TrimSpace(c.AccessKeyID)
	c.SecretAccessKey = strings.TrimSpace(c.SecretAccessKey)
	return c
}

// static reports whether explicit keys were configured.
func (c AWSCredentials) static() bool {
	return c.AccessKeyID != "" || c.SecretAccessKey != ""
}

// sanitizeHeaders trims and removes empty headers.
func sanitizeHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(v)
		if key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// validatePublisherConfig checks that required fields are present.
func validatePublisherConfig(cfg PublisherConfig) error {
	if cfg.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidConfig)
	}
	if cfg.Type == "" {
		return fmt.Errorf("%w: type is required for publisher %q", ErrInvalidConfig, cfg.ID)
	}
	switch cfg.Type {
	case TypeQueue:
		if cfg.Queue == nil {
			return fmt.Errorf("%w: queue config required for publisher %q", ErrInvalidConfig, cfg.ID)
		}
		switch cfg.Queue.Provider {
		case QueueProviderAWSSQS:
			return validateSQSConfig(cfg.ID, cfg.Queue.SQS)
		case QueueProviderAWSSNS:
			return validateSNSConfig(cfg.ID, cfg.Queue.SNS)
		case QueueProviderGCP:
			return validateGCPConfig(cfg.ID, cfg.Queue.GCP)
		default:
			return fmt.Errorf("%w: queue provider %q not supported for publisher %q", ErrInvalidConfig, cfg.Queue.Provider, cfg.ID)
		}
	case TypeHTTP:
		if cfg.HTTP == nil {
			return fmt.Errorf("%w: http config required for publisher %q", ErrInvalidConfig, cfg.ID)
		}
		if cfg.HTTP.URL == "" {
			return fmt.Errorf("%w: http.url is required for publisher %q", ErrInvalidConfig, cfg.ID)
		}
	default:
		return fmt.Errorf("%w: type %q not supported for publisher %q", ErrInvalidConfig, cfg.Type, cfg.ID)
	}
	return nil
}

func validateSQSConfig(id string, cfg *AWSSQSPublisherConfig) error {
	if cfg == nil {
		return fmt.Errorf("%w: sqs config required for publisher %q", ErrInvalidConfig, id)
	}
	if cfg.QueueURL == "" {
		return fmt.Errorf("%w: sqs.uri is required for publisher %q", ErrInvalidConfig, id)
	}
	if cfg.Region == "" {
		return fmt.Errorf("%w: sqs.region is required for publisher %q", ErrInvalidConfig, id)
	}
	return validateCredentials("sqs", id, cfg.AWSCredentials)
}

func validateSNSConfig(id string, cfg *AWSSNSPublisherConfig) error {
	if cfg == nil {
		return fmt.Errorf("%w: sns config required for publisher %q", ErrInvalidConfig, id)
	}
	if cfg.TopicARN == "" {
		return fmt.Errorf("%w: sns.topic_arn is required for publisher %q", ErrInvalidConfig, id)
	}
	if cfg.Region == "" {
		return fmt.Errorf("%w: sns.region is required for publisher %q", ErrInvalidConfig, id)
	}
	return validateCredentials("sns", id, cfg.AWSCredentials)
}

// validateCredentials rejects half-configured static keys.
func validateCredentials(prefix, id string, c AWSCredentials) error {
	if !c.static() {
		return nil
	}
	if c.AccessKeyID == "" {
		return fmt.Errorf("%w: %s.access_key_id is required with a secret for publisher %q", ErrInvalidConfig, prefix, id)
	}
	if c.SecretAccessKey == "" {
		return fmt.Errorf("%w: %s.secret_access_key is required with a key id for publisher %q", ErrInvalidConfig, prefix, id)
	}
	return nil
}

func validateGCPConfig(id string, cfg *GCPQueueConfig) error {
	if cfg == nil {
		return fmt.Errorf("%w: gcp config required for publisher %q", ErrInvalidConfig, id)
	}
	if cfg.ProjectID == "" {
		return fmt.Errorf("%w: gcp.project_id is required for publisher %q", ErrInvalidConfig, id)
	}
	if cfg.Topic == "" {
		return fmt.Errorf("%w: gcp.topic is required for publisher %q", ErrInvalidConfig, id)
	}
	return nil
}

// ByID returns the publisher config by id.
func (r *ConfigRegistry) ByID(id string) (PublisherConfig, bool) {
	if r == nil {
		return PublisherConfig{}, false
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return PublisherConfig{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.idx[id]
	return cfg, ok
}

// All returns all configured publishers in file order.
func (r *ConfigRegistry) All() []PublisherConfig {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]PublisherConfig, len(r.publishers))
	copy(out, r.publishers)
	return out
}

// Enabled returns publishers that are enabled.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	all := r.All()
	if len(all) == 0 {
		return nil
	}

	out := make([]PublisherConfig, 0, len(all))
	for _, cfg := range all {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

// EnabledValue returns enabled flag defaulting to true.
func (cfg PublisherConfig) EnabledValue() bool {
	if cfg.Enabled == nil {
		return true
	}
	return *cfg.Enabled
}
