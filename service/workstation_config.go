package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"pixeldesk/models"
)

const (
	DefaultTotalWorkstations = 1000
	DefaultBindingCost       = 10
	DefaultDurationDays      = 30
	configCacheTTL           = 5 * time.Minute
)

// DefaultWorkstationConfig is served when no settings row exists
func DefaultWorkstationConfig() *models.WorkstationConfig {
	return &models.WorkstationConfig{
		TotalWorkstations:   DefaultTotalWorkstations,
		BindingCost:         DefaultBindingCost,
		DefaultDurationDays: DefaultDurationDays,
	}
}

// cachedConfigProvider caches the workstation settings for a few minutes.
// Concurrent misses share one database read.
type cachedConfigProvider struct {
	uowFactory UnitOfWorkFactory
	now        Clock
	ttl        time.Duration

	group    singleflight.Group
	mu       sync.RWMutex
	cached   *models.WorkstationConfig
	loadedAt time.Time
}

// NewWorkstationConfigProvider creates a cached workstation config provider
func NewWorkstationConfigProvider(uowFactory UnitOfWorkFactory, now Clock) WorkstationConfigProvider {
	if now == nil {
		now = UTCNow
	}
	return &cachedConfigProvider{
		uowFactory: uowFactory,
		now:        now,
		ttl:        configCacheTTL,
	}
}

func (p *cachedConfigProvider) Get(ctx context.Context) (*models.WorkstationConfig, error) {
	p.mu.RLock()
	if p.cached != nil && p.now().Sub(p.loadedAt) < p.ttl {
		cfg := *p.cached
		p.mu.RUnlock()
		return &cfg, nil
	}
	p.mu.RUnlock()

	v, err, _ := p.group.Do("workstation_config", func() (any, error) {
		return p.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	cfg := *v.(*models.WorkstationConfig)
	return &cfg, nil
}

func (p *cachedConfigProvider) Update(ctx context.Context, cfg *models.WorkstationConfig) error {
	if cfg == nil {
		return Validation("workstation config is required")
	}
	if cfg.TotalWorkstations <= 0 {
		return Validation("totalWorkstations must be positive")
	}
	if cfg.BindingCost < 0 {
		return Validation("bindingCost cannot be negative")
	}
	if cfg.DefaultDurationDays <= 0 {
		return Validation("defaultDuration must be positive")
	}

	uow := p.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.WorkstationConfigRepository().Update(ctx, cfg); err != nil {
		return fmt.Errorf("failed to update workstation config: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	p.Invalidate()
	return nil
}

func (p *cachedConfigProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cached = nil
}

func (p *cachedConfigProvider) load(ctx context.Context) (*models.WorkstationConfig, error) {
	uow := p.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	cfg, err := uow.WorkstationConfigRepository().Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get workstation config: %w", err)
	}
	if cfg == nil {
		cfg = DefaultWorkstationConfig()
	}
	if cfg.TotalWorkstations <= 0 {
		cfg.TotalWorkstations = DefaultTotalWorkstations
	}
	if cfg.DefaultDurationDays <= 0 {
		cfg.DefaultDurationDays = DefaultDurationDays
	}

	p.mu.Lock()
	p.cached = cfg
	p.loadedAt = p.now()
	p.mu.Unlock()

	return cfg, nil
}
