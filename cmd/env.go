package main

import (
	"context"
	"time"

	"github.com/sells-group/leadmail/internal/company"
	"github.com/sells-group/leadmail/internal/metrics"
	"github.com/sells-group/leadmail/internal/patterns"
	"github.com/sells-group/leadmail/internal/store"
	"github.com/sells-group/leadmail/internal/verify"
	"github.com/sells-group/leadmail/internal/workflow"
)

// appEnv holds the store and the services built on it for one command.
type appEnv struct {
	Store     store.Store
	Metrics   *metrics.Metrics
	Cache     *patterns.Cache
	Generator *patterns.Generator
	Rebuilder *patterns.Rebuilder
	Workflow  *workflow.Workflow
	Verifier  *verify.Verifier
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv validates config for mode, opens the store and wires every
// service. Callers should defer env.Close().
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}
	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	m := metrics.New(nil)
	policy := company.NewPolicy(cfg.Patterns.PlaceholderCompanies...)
	cache := patterns.NewCache(st, policy)
	discovery := patterns.NewDiscovery(st, cache, policy, cfg.Patterns.PeerSampleSize)
	gen := patterns.NewGenerator(st, policy, cache, discovery, m)

	return &appEnv{
		Store:     st,
		Metrics:   m,
		Cache:     cache,
		Generator: gen,
		Rebuilder: patterns.NewRebuilder(st, policy, cfg.Patterns.PeerSampleSize),
		Workflow: workflow.New(st, gen, workflow.Config{
			ApproveThreshold: cfg.Workflow.ApproveThreshold,
			BatchSize:        cfg.Workflow.BatchSize,
			Concurrency:      cfg.Workflow.Concurrency,
			Retention:        cfg.Workflow.AuditRetention(),
		}, m),
		Verifier: verify.New(st, nil, nil, verifyConfig(), m),
	}, nil
}

func verifyConfig() verify.Config {
	v := cfg.Verify
	return verify.Config{
		Timeout:                 v.Timeout(),
		Port:                    v.Port,
		HeloHost:                v.HeloHost,
		MailFrom:                v.MailFrom,
		MaxProbesPerDomain:      v.MaxProbesPerDomain,
		Workers:                 v.Workers,
		ProbeInterval:           time.Duration(v.ProbeIntervalMs) * time.Millisecond,
		RetryCooldown:           v.RetryCooldown(),
		BatchSize:               v.BatchSize,
		DNSRetries:              v.DNSRetries,
		ProviderBlocklist:       v.ProviderBlocklist,
		CircuitFailureThreshold: v.CircuitFailureThreshold,
	}
}
