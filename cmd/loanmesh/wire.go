package main

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hupe1980/loanmesh"
	"github.com/hupe1980/loanmesh/config"
	"github.com/hupe1980/loanmesh/core"
	"github.com/hupe1980/loanmesh/crm"
	"github.com/hupe1980/loanmesh/logging"
	"github.com/hupe1980/loanmesh/metrics"
	"github.com/hupe1980/loanmesh/model/provider"
	"github.com/hupe1980/loanmesh/otp"
	"github.com/hupe1980/loanmesh/session/sqlite"
)

// app holds the assembled runtime.
type app struct {
	cfg      *config.Config
	mesh     *loanmesh.LoanMesh
	registry *prometheus.Registry
	logger   logging.Logger
	closers  []io.Closer
}

func (a *app) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
	if z, ok := a.logger.(*logging.ZapAdapter); ok {
		_ = z.Sync()
	}
}

// buildApp loads configuration and wires every collaborator. logOut receives
// log output.
func buildApp(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Backend: cfg.Log.Backend,
		Output:  logOut,
	})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sel, err := provider.Select(ctx, provider.Settings{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Stream:      cfg.LLM.Stream,
	})
	if err != nil {
		return nil, fmt.Errorf("select model provider: %w", err)
	}
	logger.Info("model provider selected", "provider", sel.Info.Provider, "model", sel.Info.Name)

	directory := crm.NewDemoDirectory()
	if cfg.CRM.CustomersFile != "" {
		if directory, err = crm.LoadFile(cfg.CRM.CustomersFile); err != nil {
			return nil, err
		}
	}

	var codes core.CodeProvider
	if twilioOpts := otp.TwilioOptionsFromEnv(); twilioOpts.Configured() {
		codes = otp.NewThrottle(otp.NewTwilio(twilioOpts), cfg.OTP.ResendInterval, cfg.OTP.ResendBurst)
		logger.Info("code delivery via twilio verify")
	} else {
		logger.Info("code delivery not configured, using local demo codes")
	}

	opts := func(o *loanmesh.Options) {
		o.Responder = sel.Responder
		o.Directory = directory
		o.Codes = codes
		o.CountryCode = cfg.OTP.CountryCode
		o.MaxOTPAttempts = cfg.OTP.MaxAttempts
		o.MaxHops = cfg.Flow.MaxHops
		o.Metrics = metrics.New(a.registry)
		o.Logger = logger
	}

	storeOpts := func(*loanmesh.Options) {}
	if cfg.Store.Driver == "sqlite" {
		db, err := sqlite.Open(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db)
		storeOpts = func(o *loanmesh.Options) {
			o.Store = db
			o.Artifacts = db.Artifacts()
		}
		logger.Info("using sqlite store", "path", cfg.Store.Path)
	}

	mesh, err := loanmesh.New(opts, storeOpts)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.mesh = mesh
	return a, nil
}
