package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	_ "github.com/lib/pq"

	"idledger/internal/ledger/handler"
	"idledger/internal/ledger/store"
	ledgerbadger "idledger/internal/ledger/store/badger"
	"idledger/internal/ledger/store/memory"
	ledgerpostgres "idledger/internal/ledger/store/postgres"
	ledgerredis "idledger/internal/ledger/store/redis"
	"idledger/internal/platform/config"
	platformredis "idledger/internal/platform/redis"
	"idledger/pkg/platform/audit/publisher"
	auditkafka "idledger/pkg/platform/audit/store/kafka"
	auditmemory "idledger/pkg/platform/audit/store/memory"
	auditpostgres "idledger/pkg/platform/audit/store/postgres"
	"idledger/pkg/platform/httputil"
)

// resources owns every backend connection the process opened. close releases
// them in reverse order of acquisition.
type resources struct {
	cfg    *config.Config
	logger *slog.Logger

	db      *sql.DB
	redis   *platformredis.Client
	closers []func() error

	ledger      store.Store
	publisher   *publisher.Publisher
	auditReader handler.AuditReader
}

func openResources(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *resources, err error) {
	res := &resources{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			_ = res.close()
		}
	}()

	if err := res.openLedger(ctx); err != nil {
		return nil, err
	}
	if err := res.openAudit(ctx); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *resources) onClose(fn func() error) {
	r.closers = append(r.closers, fn)
}

func (r *resources) close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	r.closers = nil
	return errors.Join(errs...)
}

// postgres opens the shared *sql.DB once and applies every schema in use.
func (r *resources) postgres(ctx context.Context) (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := sql.Open("postgres", r.cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(r.cfg.Postgres.MaxOpenConns)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	r.db = db
	r.onClose(db.Close)
	return db, nil
}

func (r *resources) openLedger(ctx context.Context) error {
	switch r.cfg.Ledger.Store {
	case config.StoreMemory:
		r.ledger = memory.New()
	case config.StoreBadger:
		st, err := ledgerbadger.New(
			ledgerbadger.WithDataDir(r.cfg.Badger.DataDir),
			ledgerbadger.WithGCInterval(r.cfg.Badger.GCInterval),
			ledgerbadger.WithLogger(r.logger),
		)
		if err != nil {
			return err
		}
		r.ledger = st
	case config.StoreRedis:
		client, err := platformredis.New(ctx, r.cfg.Redis)
		if err != nil {
			return err
		}
		r.redis = client
		r.onClose(client.Close)
		r.ledger = ledgerredis.New(client.Client,
			ledgerredis.WithKeyPrefix(r.cfg.Redis.KeyPrefix),
			ledgerredis.WithMaxRetries(r.cfg.Redis.TxRetries),
		)
	case config.StorePostgres:
		db, err := r.postgres(ctx)
		if err != nil {
			return err
		}
		if err := ledgerpostgres.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate ledger schema: %w", err)
		}
		r.ledger = ledgerpostgres.New(db, ledgerpostgres.WithTxTimeout(r.cfg.Ledger.TxTimeout))
	default:
		return fmt.Errorf("unknown ledger store %q", r.cfg.Ledger.Store)
	}
	r.onClose(r.ledger.Close)
	r.logger.InfoContext(ctx, "ledger store ready", "store", r.cfg.Ledger.Store)
	return nil
}

func (r *resources) openAudit(ctx context.Context) error {
	opts := []publisher.Option{publisher.WithLogger(r.logger)}
	if r.cfg.Audit.Buffer > 0 {
		opts = append(opts, publisher.WithAsyncBuffer(r.cfg.Audit.Buffer))
	}

	switch r.cfg.Audit.Sink {
	case config.AuditNone:
		return nil
	case config.AuditMemory:
		st := auditmemory.NewInMemoryStore()
		r.publisher = publisher.NewPublisher(st, opts...)
		r.auditReader = r.publisher
	case config.AuditPostgres:
		db, err := r.postgres(ctx)
		if err != nil {
			return err
		}
		if err := auditpostgres.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate audit schema: %w", err)
		}
		r.publisher = publisher.NewPublisher(auditpostgres.New(db), opts...)
		r.auditReader = r.publisher
	case config.AuditKafka:
		st, err := auditkafka.New(r.cfg.Kafka.Brokers, r.cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		r.onClose(func() error { st.Close(); return nil })
		if err := st.EnsureTopic(ctx, r.cfg.Kafka.Partitions, r.cfg.Kafka.ReplicationFactor); err != nil {
			return fmt.Errorf("ensure audit topic: %w", err)
		}
		r.publisher = publisher.NewPublisher(st, opts...)
	default:
		return fmt.Errorf("unknown audit sink %q", r.cfg.Audit.Sink)
	}
	// Registered after the sink so buffered events drain before it closes.
	r.onClose(func() error { r.publisher.Close(); return nil })
	r.logger.InfoContext(ctx, "audit sink ready", "sink", r.cfg.Audit.Sink, "buffer", r.cfg.Audit.Buffer)
	return nil
}

// health reports backend reachability for /healthz.
func (r *resources) health(ctx context.Context) error {
	if r.db != nil {
		if err := r.db.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if r.redis != nil {
		if err := r.redis.Health(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (r *resources) healthHandler(w http.ResponseWriter, req *http.Request) {
	if err := r.health(req.Context()); err != nil {
		r.logger.WarnContext(req.Context(), "health check failed", "error", err)
		httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
