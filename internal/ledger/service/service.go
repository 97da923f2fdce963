// Package service implements the identity and credential ledger. Every
// operation reads the caller address from the request context and applies as
// one store transaction. Operations that read the ledger clock take it inside
// that transaction, so clocks never run backwards in apply order. Rejected
// calls leave every record unchanged.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	ledgermetrics "idledger/internal/ledger/metrics"
	"idledger/internal/ledger/models"
	"idledger/internal/ledger/store"
	"idledger/pkg/domain"
	dErrors "idledger/pkg/domain-errors"
	audit "idledger/pkg/platform/audit"
	"idledger/pkg/platform/sentinel"
	"idledger/pkg/requestcontext"
)

const tracerName = "idledger/internal/ledger/service"

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          store.Store
	mode           models.GuardMode
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *ledgermetrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *ledgermetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithGuardMode selects legacy or strict existence guards. Default legacy.
func WithGuardMode(mode models.GuardMode) Option {
	return func(s *Service) {
		s.mode = mode
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func New(st store.Store, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New("ledger store is required")
	}
	s := &Service{store: st, mode: models.GuardModeLegacy}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s, nil
}

// Mode reports the active guard mode.
func (s *Service) Mode() models.GuardMode {
	return s.mode
}

// begin opens a span for op and returns a finisher that records the outcome.
// Call the finisher with the operation's final error.
func (s *Service) begin(ctx context.Context, op models.Operation) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, string(op), trace.WithAttributes(
		attribute.String("ledger.operation", string(op)),
		attribute.String("ledger.guard_mode", string(s.mode)),
	))
	return ctx, func(err error) {
		defer span.End()
		if s.metrics != nil {
			s.metrics.ObserveOperation(string(op), start, err)
		}
		if err == nil {
			return
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, dErrors.Message(err))
		attrs := []any{
			"operation", string(op),
			"code", string(dErrors.CodeOf(err)),
			"error", err,
		}
		if kind, ok := models.LegacyKindFor(op, err); ok {
			attrs = append(attrs, "legacy_kind", string(kind))
			if s.metrics != nil {
				s.metrics.IncrementLegacyError(string(op), string(kind))
			}
		}
		if dErrors.HasCode(err, dErrors.CodeInternal) || dErrors.HasCode(err, dErrors.CodeTimeout) {
			s.logger.ErrorContext(ctx, "ledger operation failed", attrs...)
			return
		}
		if dErrors.HasCode(err, dErrors.CodeConcurrentUpdate) {
			s.logger.WarnContext(ctx, "ledger operation lost a store race", attrs...)
			return
		}
		s.logger.DebugContext(ctx, "ledger operation rejected", attrs...)
	}
}

func requireCaller(ctx context.Context) (domain.Address, error) {
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return "", dErrors.New(dErrors.CodeUnauthorized, "caller address is required")
	}
	return caller, nil
}

// runInTx applies fn and normalizes anything that is not already a domain
// error.
func (s *Service) runInTx(ctx context.Context, fn func(tx store.Tx) error) error {
	err := s.store.RunInTx(ctx, fn)
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConcurrentUpdate, "concurrent ledger update, resubmit the call")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "ledger transaction aborted")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "ledger store failure")
	}
}

func findIdentity(ctx context.Context, tx store.Tx, owner domain.Address) (*models.Identity, error) {
	identity, err := tx.FindIdentity(ctx, owner)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(models.ErrIdentityNotFound, dErrors.CodeNotFound, "identity not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
	}
	return identity, nil
}

func findCredential(ctx context.Context, tx store.Tx, hash domain.Hash) (*models.Credential, error) {
	credential, err := tx.FindCredential(ctx, hash)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(models.ErrCredentialNotFound, dErrors.CodeNotFound, "credential not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credential")
	}
	return credential, nil
}

func findRequest(ctx context.Context, tx store.Tx, id domain.Hash) (*models.DisclosureRequest, error) {
	request, err := tx.FindDisclosureRequest(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(models.ErrRequestNotFound, dErrors.CodeNotFound, "disclosure request not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load disclosure request")
	}
	return request, nil
}

// emitAudit logs the event and forwards it to the publisher. It runs after
// commit, so a publisher failure is logged and never fails the operation.
func (s *Service) emitAudit(ctx context.Context, event audit.AuditEvent, caller domain.Address, subject string) {
	requestID := requestcontext.RequestID(ctx)
	s.logger.InfoContext(ctx, string(event),
		"caller", caller.String(),
		"subject", subject,
		"request_id", requestID,
		"event", string(event),
		"log_type", "audit",
	)
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Category:   event.Category(),
		Timestamp:  requestcontext.Now(ctx),
		Action:     string(event),
		Caller:     caller,
		Subject:    subject,
		LedgerTime: requestcontext.Clock(ctx),
		RequestID:  requestID,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to publish audit event",
			"event", string(event),
			"error", err,
		)
	}
}
