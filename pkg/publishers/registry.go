package publishers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Adda-Baaj/durjog-khobor/internal/logger"
)

// Builder creates a Publisher from a config entry.
type Builder func(ctx context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error)

// Registry maps publisher types to builders.
type Registry interface {
	Register(typ string, builder Builder)
	PublisherFor(ctx context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error)
}

type registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry returns a registry with optional pre-registered builders.
func NewRegistry(builders map[string]Builder) Registry {
	r := &registry{
		builders: make(map[string]Builder),
	}
	for typ, b := range builders {
		r.Register(typ, b)
	}
	return r
}

// Register associates a builder with a publisher type.
func (r *registry) Register(typ string, builder Builder) {
	if typ = strings.TrimSpace(strings.ToLower(typ)); typ == "" || builder == nil {
		return
	}

	r.mu.Lock()
	r.builders[typ] = builder
	r.mu.Unlock()
}

// PublisherFor returns the publisher built for the provided config.
func (r *registry) PublisherFor(ctx context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("publisher %q has no type configured", cfg.ID)
	}

	r.mu.RLock()
	builder := r.builders[strings.ToLower(cfg.Type)]
	r.mu.RUnlock()

	if builder == nil {
		return nil, fmt.Errorf("no publisher registered for type %q", cfg.Type)
	}
	return builder(ctx, cfg, log)
}

// DefaultRegistry wires up known publishers.
func DefaultRegistry() Registry {
	return NewRegistry(map[string]Builder{
		TypeHTTP:  newHTTPPublisher,
		TypeQueue: newQueuePublisher,
	})
}

// BuildAll instantiates publishers for cfgs. On failure the publishers built
// so far are closed.
func BuildAll(ctx context.Context, reg Registry, cfgs []PublisherConfig, log logger.Logger) ([]Publisher, error) {
	if reg == nil || len(cfgs) == 0 {
		return nil, nil
	}

	if ctx == nil {
		ctx = context.Background()
	}
	log = logger.Ensure(log)

	pubs := make([]Publisher, 0, len(cfgs))
	for _, cfg := range cfgs {
		pub, err := reg.PublisherFor(ctx, cfg, log)
		if err != nil {
			closeErr := closeAll(pubs)
			return nil, errors.Join(fmt.Errorf("build publisher %q: %w", cfg.ID, err), closeErr)
		}
		log.InfoObj("publisher ready", "publisher_ready", map[string]any{
			"publisher_id": pub.ID(),
			"type":         pub.Type(),
		})
		pubs = append(pubs, pub)
	}
	return pubs, nil
}

// FromFile loads path and builds a Dispatcher over its enabled publishers.
// An empty path yields a Dispatcher with no publishers.
func FromFile(ctx context.Context, path string, log logger.Logger) (*Dispatcher, error) {
	if strings.TrimSpace(path) == "" {
		return NewDispatcher(nil, log), nil
	}
	cfgReg, err := LoadRegistry(path)
	if err != nil {
		return nil, err
	}
	pubs, err := BuildAll(ctx, DefaultRegistry(), cfgReg.Enabled(), log)
	if err != nil {
		return nil, err
	}
	return NewDispatcher(pubs, log), nil
}

func closeAll(pubs []Publisher) error {
	var errs []error
	for _, p := range pubs {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
