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

package polity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/polity/api"
	"github.com/blinklabs-io/polity/database"
	"github.com/blinklabs-io/polity/event"
	"github.com/blinklabs-io/polity/ledger"
	"github.com/blinklabs-io/polity/settlement"
	"github.com/blinklabs-io/polity/token"
	"github.com/blinklabs-io/polity/vault"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrNotRunning = errors.New("node is not running")
	// ErrSettlementDisabled is returned by Settle when no router is configured
	ErrSettlementDisabled = fmt.Errorf(
		"%w: settlement is not configured",
		ledger.ErrInvalidState,
	)
)

type Node struct {
	eventBus      *event.EventBus
	db            *database.Database
	journal       *ledger.Journal
	ledgerState   *ledger.LedgerState
	token         *token.Token
	vault         *vault.Vault
	router        *settlement.StaticRouter
	settler       *settlement.Settler
	apiServer     *api.Server
	logger        *slog.Logger
	tracer        trace.Tracer
	runCancel     context.CancelFunc
	shutdownFuncs []func(context.Context) error
	metrics       nodeMetrics
	config        Config
	done          chan struct{}
	loopWg        sync.WaitGroup
	mu            sync.RWMutex
	shutdownOnce  sync.Once
	running       bool
}

func New(cfg Config) (*Node, error) {
	if cfg.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	n := &Node{
		config: cfg,
		logger: cfg.logger.With("component", "node"),
		tracer: otel.Tracer(tracerName),
		done:   make(chan struct{}),
	}
	if err := n.configValidate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	n.eventBus = event.NewEventBus(cfg.promRegistry, cfg.logger)
	n.metrics.init(cfg.promRegistry)
	return n, nil
}

// EventBus returns the bus that committed operations publish to
func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}

// Run starts the node and blocks until ctx is canceled or Stop is called
func (n *Node) Run(ctx context.Context) error {
	if err := n.Start(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return n.Stop()
	case <-n.done:
		return nil
	}
}

// Start opens the database, loads or creates the state and starts the
// settlement loop and the HTTP API
func (n *Node) Start() error {
	if err := n.start(); err != nil {
		return errors.Join(err, n.Stop())
	}
	return nil
}

func (n *Node) start() error {
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(); err != nil {
			return err
		}
		n.tracer = otel.Tracer(tracerName)
	}
	// Load database
	dbNeedsRecovery := false
	dbConfig := &database.Config{
		DataDir:        n.config.dataDir,
		Logger:         n.config.logger,
		PromRegistry:   n.config.promRegistry,
		BlobPlugin:     n.config.blobPlugin,
		MetadataPlugin: n.config.metadataPlugin,
	}
	db, err := database.New(dbConfig)
	if db == nil {
		if err == nil {
			err = errors.New("empty database returned")
		}
		n.logger.Error(
			"failed to create database",
			"error", err,
		)
		return fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	if err != nil {
		var dbErr database.CommitTimestampError
		if !errors.As(err, &dbErr) {
			return fmt.Errorf("failed to open database: %w", err)
		}
		n.logger.Warn(
			"database initialization error, needs recovery",
			"error", err,
			"last_sequence", dbErr.LastSequence,
		)
		dbNeedsRecovery = true
	}
	if dbNeedsRecovery {
		if err := n.db.RecoverCommitTimestamp(); err != nil {
			return fmt.Errorf("failed to recover database: %w", err)
		}
	}
	// Build state components
	n.journal = ledger.NewJournal(n.eventBus)
	n.ledgerState, err = ledger.NewLedgerState(ledger.LedgerStateConfig{
		Logger:       n.config.logger,
		PromRegistry: n.config.promRegistry,
		Clock:        n.config.clock,
		Journal:      n.journal,
		Params:       n.config.params,
	})
	if err != nil {
		return fmt.Errorf("failed to create ledger state: %w", err)
	}
	n.token, err = token.New(token.TokenConfig{
		Logger:  n.config.logger,
		Journal: n.journal,
		Ledger:  n.ledgerState,
	})
	if err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}
	n.ledgerState.SetBalanceReader(n.token)
	n.vault = vault.New(vault.VaultConfig{
		Logger:  n.config.logger,
		Journal: n.journal,
	})
	n.ledgerState.SetPayer(n.vault)
	if s := n.config.settlement; !s.Router.IsNull() {
		n.router, err = settlement.NewStaticRouter(s.Router, s.Pair, s.Rate)
		if err != nil {
			return fmt.Errorf("failed to create router: %w", err)
		}
		n.settler, err = settlement.NewSettler(settlement.SettlerConfig{
			Logger:       n.config.logger,
			PromRegistry: n.config.promRegistry,
			Journal:      n.journal,
			Ledger:       n.ledgerState,
			Token:        n.token,
			Router:       n.router,
			MinBatch:     s.MinBatch,
		})
		if err != nil {
			return fmt.Errorf("failed to create settler: %w", err)
		}
	}
	// Load persisted state
	if err := n.ledgerState.Load(n.db); err != nil {
		return fmt.Errorf("failed to load ledger state: %w", err)
	}
	if err := n.token.Load(n.db); err != nil {
		return fmt.Errorf("failed to load token state: %w", err)
	}
	if err := n.vault.Load(n.db); err != nil {
		return fmt.Errorf("failed to load vault state: %w", err)
	}
	seq, err := n.db.LastOperationSequence(nil)
	if err != nil {
		return fmt.Errorf("failed to read operation journal: %w", err)
	}
	n.metrics.sequence.Set(float64(seq))
	n.mu.Lock()
	n.running = true
	n.mu.Unlock()
	if !n.ledgerState.Initialized() {
		if err := n.applyGenesis(context.Background()); err != nil {
			return fmt.Errorf("failed to apply genesis: %w", err)
		}
	}
	n.ledgerState.UpdateMetrics()
	runCtx, cancel := context.WithCancel(context.Background())
	n.runCancel = cancel
	// Start settlement loop
	if n.settler != nil && n.config.settlement.Interval > 0 {
		n.loopWg.Add(1)
		go n.settlementLoop(runCtx, n.config.settlement.Interval)
	}
	// Configure HTTP API
	if n.config.apiListenAddress != "" {
		n.apiServer = api.New(
			api.Config{ListenAddress: n.config.apiListenAddress},
			apiAdapter{n},
			n.config.logger,
		)
		if err := n.apiServer.Start(runCtx); err != nil {
			return fmt.Errorf("failed to start API server: %w", err)
		}
	}
	n.logger.Info(
		"node started",
		"phase", n.ledgerState.Phase(n.now()).String(),
		"sequence", seq,
	)
	return nil
}

func (n *Node) now() time.Time {
	if n.config.clock != nil {
		return n.config.clock.Now()
	}
	return time.Now()
}

func (n *Node) applyGenesis(ctx context.Context) error {
	g := n.config.genesis
	genesis := ledger.Genesis{
		MonarchyEnd:  n.now().Add(g.MonarchyDuration),
		President:    g.President,
		Automation:   g.Automation,
		FeeRecipient: g.FeeRecipient,
		Weights:      g.Weights,
	}
	args := map[string]any{
		"monarchyEnd":  genesis.MonarchyEnd,
		"president":    g.President,
		"automation":   g.Automation,
		"feeRecipient": g.FeeRecipient,
		"holder":       g.Holder,
		"supply":       g.Supply,
		"weights":      g.Weights,
	}
	return n.execute(
		ctx,
		OpGenesis,
		ledger.NullAddress,
		args,
		func(context.Context) (any, error) {
			if err := n.ledgerState.ApplyGenesis(genesis); err != nil {
				return nil, err
			}
			if g.Supply > 0 {
				if err := n.token.Mint(g.Holder, g.Supply); err != nil {
					return nil, err
				}
			}
			return nil, nil
		},
	)
}

// execute runs fn as one atomic operation. Operations are serialized; state
// changes recorded in the journal are reverted if fn fails or the commit
// fails, otherwise they are written together with the operation record and
// the collected events are published
func (n *Node) execute(
	ctx context.Context,
	op string,
	caller ledger.Address,
	args any,
	fn func(context.Context) (any, error),
) error {
	ctx, span := n.tracer.Start(
		ctx,
		op,
		trace.WithAttributes(
			attribute.String("operation", op),
			attribute.String("caller", caller.String()),
		),
	)
	defer span.End()
	start := time.Now()
	n.mu.Lock()
	evts, rec, err := n.executeLocked(ctx, op, caller, args, fn)
	if err == nil {
		n.ledgerState.UpdateMetrics()
	}
	n.mu.Unlock()
	n.metrics.observe(op, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		n.logger.Debug(
			"operation failed",
			"operation", op,
			"caller", caller.String(),
			"error", err,
		)
		return err
	}
	span.SetAttributes(attribute.Int64("sequence", int64(rec.Sequence))) //nolint:gosec
	n.metrics.sequence.Set(float64(rec.Sequence))
	n.journal.Publish(evts)
	return nil
}

func (n *Node) executeLocked(
	ctx context.Context,
	op string,
	caller ledger.Address,
	args any,
	fn func(context.Context) (any, error),
) ([]event.Event, *database.OperationRecord, error) {
	if !n.running {
		return nil, nil, ErrNotRunning
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	n.journal.Begin()
	result, err := fn(ctx)
	if err != nil {
		n.journal.Revert()
		return nil, nil, err
	}
	rec := &database.OperationRecord{
		ID:        uuid.NewString(),
		Operation: op,
		Timestamp: n.now().UTC(),
	}
	if !caller.IsNull() {
		rec.Caller = caller.String()
	}
	if args != nil {
		if rec.Args, err = json.Marshal(args); err != nil {
			n.journal.Revert()
			return nil, nil, fmt.Errorf("encode %s arguments: %w", op, err)
		}
	}
	if result != nil {
		if rec.Result, err = json.Marshal(result); err != nil {
			n.journal.Revert()
			return nil, nil, fmt.Errorf("encode %s result: %w", op, err)
		}
	}
	err = n.db.Transaction(true).Do(func(txn *database.Txn) error {
		if err := n.journal.Flush(txn); err != nil {
			return err
		}
		return n.db.AppendOperation(rec, txn)
	})
	if err != nil {
		n.journal.Revert()
		return nil, nil, fmt.Errorf("commit %s: %w", op, err)
	}
	return n.journal.Commit(), rec, nil
}

// read runs fn under the shared lock
func (n *Node) read(fn func() error) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if !n.running {
		return ErrNotRunning
	}
	return fn()
}

func (n *Node) settlementLoop(ctx context.Context, interval time.Duration) {
	defer n.loopWg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		caller, due := n.settlementDue()
		if !due {
			continue
		}
		if caller.IsNull() {
			n.logger.Debug("skipping settlement, no operator address")
			continue
		}
		runCtx, cancel := context.WithTimeout(ctx, interval)
		res, err := n.Settle(runCtx, caller)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			n.logger.Warn(
				"scheduled settlement failed",
				"error", err,
			)
			continue
		}
		if res.Swapped > 0 || res.Liquidity > 0 {
			n.logger.Debug(
				"scheduled settlement complete",
				"swapped", res.Swapped,
				"liquidity", res.Liquidity,
				"proceeds", res.Proceeds,
			)
		}
	}
}

// settlementDue reports whether the fee recipient holds enough tokens to
// settle, and the operator to settle as: the automation address, falling
// back to the president
func (n *Node) settlementDue() (ledger.Address, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if !n.running {
		return ledger.NullAddress, false
	}
	recipient := n.ledgerState.FeeRecipient()
	if recipient.IsNull() {
		return ledger.NullAddress, false
	}
	balance := n.token.BalanceOf(recipient)
	if balance == 0 || balance < n.config.settlement.MinBatch {
		return ledger.NullAddress, false
	}
	if automation := n.ledgerState.Automation(); !automation.IsNull() {
		return automation, true
	}
	return n.ledgerState.Roles()[ledger.CategoryPresident], true
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	// Create shutdown context with timeout (default 30s if not configured)
	shutdownTimeout := DefaultShutdownTimeout
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	n.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new work
	n.logger.Debug("shutdown phase 1: stopping new work")

	if n.apiServer != nil {
		if stopErr := n.apiServer.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("API server shutdown: %w", stopErr))
		}
	}

	// Phase 2: Drain background work
	n.logger.Debug("shutdown phase 2: draining settlement loop")

	if n.runCancel != nil {
		n.runCancel()
	}
	n.loopWg.Wait()

	// Phase 3: Close database
	n.logger.Debug("shutdown phase 3: closing database")

	n.mu.Lock()
	n.running = false
	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
		}
	}
	n.mu.Unlock()

	// Phase 4: Cleanup resources
	n.logger.Debug("shutdown phase 4: cleanup resources")

	// Call registered shutdown functions
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	if n.eventBus != nil {
		n.eventBus.Stop()
	}

	n.logger.Debug("graceful shutdown complete")
	close(n.done)
	return err
}
