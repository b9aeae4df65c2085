// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/polity"
	"github.com/blinklabs-io/polity/internal/config"
	"github.com/blinklabs-io/polity/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NodeOptions translates the loaded configuration into node options. The
// API listener and the settlement loop are only enabled when serve is true
func NodeOptions(
	cfg *config.Config,
	logger *slog.Logger,
	registry prometheus.Registerer,
	serve bool,
) ([]polity.ConfigOptionFunc, error) {
	shutdownTimeout, err := parseDuration(
		"shutdown timeout",
		cfg.ShutdownTimeout,
		polity.DefaultShutdownTimeout,
	)
	if err != nil {
		return nil, err
	}
	params, err := governanceParams(cfg.Governance)
	if err != nil {
		return nil, err
	}
	genesis, err := genesisConfig(cfg.Genesis)
	if err != nil {
		return nil, err
	}
	settlement, err := settlementConfig(cfg.Settlement)
	if err != nil {
		return nil, err
	}
	opts := []polity.ConfigOptionFunc{
		polity.WithLogger(logger),
		polity.WithDatabasePath(cfg.DatabasePath),
		polity.WithBlobPlugin(cfg.BlobPlugin),
		polity.WithMetadataPlugin(cfg.MetadataPlugin),
		polity.WithPrometheusRegistry(registry),
		polity.WithParams(params),
		polity.WithGenesis(genesis),
		polity.WithShutdownTimeout(shutdownTimeout),
		polity.WithTracing(cfg.Tracing),
		polity.WithTracingStdout(cfg.TracingStdout),
	}
	if !serve {
		// Keep the router so on-demand settlement still validates, but
		// never start the background loop for one-shot commands
		settlement.Interval = 0
	}
	opts = append(opts, polity.WithSettlement(settlement))
	if serve && cfg.ApiPort > 0 {
		opts = append(
			opts,
			polity.WithApiListenAddress(
				fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.ApiPort),
			),
		)
	}
	return opts, nil
}

// Open starts a node for a one-shot command. The caller must Stop it
func Open(cfg *config.Config, logger *slog.Logger) (*polity.Node, error) {
	opts, err := NodeOptions(cfg, logger, nil, false)
	if err != nil {
		return nil, err
	}
	n, err := polity.New(polity.NewConfig(opts...))
	if err != nil {
		return nil, err
	}
	if err := n.Start(); err != nil {
		return nil, err
	}
	return n, nil
}

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	opts, err := NodeOptions(cfg, logger, prometheus.DefaultRegisterer, true)
	if err != nil {
		return err
	}
	nodeCfg := polity.NewConfig(opts...)
	n, err := polity.New(nodeCfg)
	if err != nil {
		return err
	}
	logEvents(n.EventBus(), logger)
	shutdownTimeout, _ := parseDuration(
		"shutdown timeout",
		cfg.ShutdownTimeout,
		polity.DefaultShutdownTimeout,
	)
	// Metrics listener
	var metricsServer *http.Server
	if cfg.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsAddr := fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.MetricsPort)
		logger.Info(
			"serving prometheus metrics on "+metricsAddr,
			"component",
			"node",
		)
		metricsServer = &http.Server{
			Addr:              metricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
	}
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	nodeErrChan := make(chan error, 1)
	metricsErrChan := make(chan error, 1)
	if metricsServer != nil {
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				metricsErrChan <- fmt.Errorf("metrics listener: %w", err)
			}
		}()
	}
	go func() {
		//nolint:contextcheck
		nodeErrChan <- n.Run(signalCtx)
	}()

	var runErr error
	select {
	case <-signalCtx.Done():
		logger.Info("signal received, initiating graceful shutdown")
		// Run stops the node before returning
		runErr = <-nodeErrChan
	case runErr = <-nodeErrChan:
		if runErr != nil {
			logger.Error("node error", "error", runErr)
		}
	case err := <-metricsErrChan:
		logger.Error("metrics server error", "error", err)
		signalCtxStop()
		runErr = errors.Join(err, <-nodeErrChan)
	}
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}
	if runErr != nil {
		logger.Error("shutdown errors occurred", "error", runErr)
		return runErr
	}
	logger.Info("shutdown complete")
	return nil
}

func parseDuration(
	name string,
	value string,
	def time.Duration,
) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	ret, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return ret, nil
}

func governanceParams(cfg config.GovernanceConfig) (ledger.Params, error) {
	ret := ledger.DefaultParams()
	ret.MaxFeeSum = cfg.MaxFeeSum
	ret.RestrictionQuota = cfg.RestrictionQuota
	window, err := parseDuration(
		"restriction window",
		cfg.RestrictionWindow,
		ledger.DefaultRestrictionWindow,
	)
	if err != nil {
		return ret, err
	}
	ret.RestrictionWindow = window
	return ret, nil
}

func genesisConfig(cfg config.GenesisConfig) (polity.GenesisConfig, error) {
	var ret polity.GenesisConfig
	var err error
	addrs := []struct {
		name  string
		value string
		dest  *ledger.Address
	}{
		{"genesis president", cfg.President, &ret.President},
		{"genesis automation", cfg.Automation, &ret.Automation},
		{"genesis fee recipient", cfg.FeeRecipient, &ret.FeeRecipient},
		{"genesis holder", cfg.Holder, &ret.Holder},
	}
	for _, a := range addrs {
		*a.dest, err = ledger.ParseAddress(a.value)
		if err != nil {
			return ret, fmt.Errorf("invalid %s: %w", a.name, err)
		}
	}
	ret.Supply = cfg.Supply
	ret.MonarchyDuration, err = parseDuration(
		"monarchy duration",
		cfg.MonarchyDuration,
		polity.DefaultMonarchyDuration,
	)
	if err != nil {
		return ret, err
	}
	if len(cfg.Weights) == 0 {
		ret.Weights = polity.DefaultGenesisWeights
		return ret, nil
	}
	if len(cfg.Weights) != ledger.NumFeeCategories {
		return ret, fmt.Errorf(
			"genesis weights must have %d entries, got %d",
			ledger.NumFeeCategories,
			len(cfg.Weights),
		)
	}
	copy(ret.Weights[:], cfg.Weights)
	return ret, nil
}

func settlementConfig(
	cfg config.SettlementConfig,
) (polity.SettlementConfig, error) {
	var ret polity.SettlementConfig
	var err error
	ret.Router, err = ledger.ParseAddress(cfg.Router)
	if err != nil {
		return ret, fmt.Errorf("invalid settlement router: %w", err)
	}
	ret.Pair, err = ledger.ParseAddress(cfg.Pair)
	if err != nil {
		return ret, fmt.Errorf("invalid settlement pair: %w", err)
	}
	ret.Interval, err = parseDuration("settlement interval", cfg.Interval, 0)
	if err != nil {
		return ret, err
	}
	ret.Rate = cfg.Rate
	ret.MinBatch = cfg.MinBatch
	return ret, nil
}
