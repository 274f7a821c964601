// Package warmup keeps every enabled exchange's market catalog loaded and
// refreshes it on a fixed interval.
package warmup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cryptobridge/config"
	"cryptobridge/exchange"
	"cryptobridge/exchange/bitstamp"
	"cryptobridge/exchange/gemini"
	"cryptobridge/internal/client"
	"cryptobridge/logger"
)

// Target is one adapter and how often its catalog is reloaded.
type Target struct {
	Exchange exchange.Exchange
	Interval time.Duration
}

// Service runs the initial catalog load and the refresh loops.
type Service struct {
	targets []Target
	log     *logger.Log

	mu      sync.Mutex
	wg      sync.WaitGroup
	running bool
}

func NewService(log *logger.Log, targets ...Target) *Service {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Service{targets: targets, log: log}
}

// Start loads every catalog once and schedules the refreshes. A failed
// initial load is logged and retried on the next tick.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("warmup service already running")
	}
	if len(s.targets) == 0 {
		s.mu.Unlock()
		return fmt.Errorf("no exchanges to warm up")
	}
	s.running = true
	s.mu.Unlock()

	for _, t := range s.targets {
		s.load(ctx, t.Exchange, false)
		s.wg.Add(1)
		go s.refresh(ctx, t)
	}

	s.log.WithComponent("warmup").WithFields(logger.Fields{
		"exchanges": len(s.targets),
	}).Info("catalog warm-up started")
	return nil
}

// Stop waits for the refresh loops to exit. Cancel the Start context first.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()
	s.log.WithComponent("warmup").Info("catalog warm-up stopped")
}

func (s *Service) refresh(ctx context.Context, t Target) {
	defer s.wg.Done()

	interval := t.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.load(ctx, t.Exchange, true)
		}
	}
}

func (s *Service) load(ctx context.Context, ex exchange.Exchange, reload bool) {
	l := s.log.WithComponent("warmup").WithFields(logger.Fields{"exchange": ex.ID(), "reload": reload})
	snap, err := ex.LoadMarkets(ctx, reload)
	if err != nil {
		if ctx.Err() == nil {
			l.WithError(err).Warn("failed to load markets")
		}
		return
	}
	l.WithFields(logger.Fields{
		"markets":    snap.Len(),
		"currencies": len(snap.Currencies()),
	}).Info("market catalog loaded")
}

// Targets builds an HTTP runtime and adapter for each enabled exchange.
func Targets(cfg *config.Config, log *logger.Log) ([]Target, error) {
	var targets []Target

	if ex := cfg.Exchanges.Bitstamp; ex.Enabled {
		rt := client.New(bitstamp.ID, runtimeConfig(cfg, bitstamp.Describe(), log))
		targets = append(targets, Target{
			Exchange: bitstamp.New(rt, adapterOptions(ex, log)),
			Interval: ex.RefreshInterval,
		})
	}
	if ex := cfg.Exchanges.Gemini; ex.Enabled {
		rt := client.New(gemini.ID, runtimeConfig(cfg, gemini.Describe(), log))
		targets = append(targets, Target{
			Exchange: gemini.New(rt, adapterOptions(ex, log)),
			Interval: ex.RefreshInterval,
		})
	}

	if len(targets) == 0 {
		return nil, fmt.Errorf("no exchange enabled")
	}
	return targets, nil
}

func runtimeConfig(cfg *config.Config, desc exchange.Description, log *logger.Log) client.Config {
	rps := cfg.Runtime.RateLimit.RequestsPerSecond
	if rps <= 0 {
		rps = client.RequestsPerSecond(desc.RateLimit)
	}
	return client.Config{
		Timeout:           cfg.Runtime.Timeout,
		UserAgent:         cfg.Runtime.UserAgent,
		RequestsPerSecond: rps,
		Burst:             cfg.Runtime.RateLimit.BurstSize,
		MaxIdleConns:      cfg.Runtime.ConnectionPool.MaxIdleConns,
		MaxConnsPerHost:   cfg.Runtime.ConnectionPool.MaxConnsPerHost,
		IdleConnTimeout:   cfg.Runtime.ConnectionPool.IdleConnTimeout,
		Log:               log,
	}
}

func adapterOptions(ex config.ExchangeConfig, log *logger.Log) exchange.Options {
	return exchange.Options{
		Credentials: exchange.Credentials{
			APIKey: ex.APIKey,
			Secret: ex.Secret,
			UID:    ex.UID,
		},
		BaseURL: ex.BaseURL,
		Sandbox: ex.Sandbox,
		Log:     log,
	}
}
