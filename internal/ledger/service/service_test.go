package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks AuditPublisher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	ledgermetrics "idledger/internal/ledger/metrics"
	"idledger/internal/ledger/models"
	"idledger/internal/ledger/service/mocks"
	"idledger/internal/ledger/store"
	"idledger/internal/ledger/store/memory"
	"idledger/pkg/domain"
	dErrors "idledger/pkg/domain-errors"
	audit "idledger/pkg/platform/audit"
	"idledger/pkg/platform/sentinel"
	"idledger/pkg/requestcontext"
)

// =============================================================================
// Ledger Service Test Suite
// =============================================================================
// Runs every operation against the in-memory store. The audit publisher is a
// mock so emission can be asserted where it matters and ignored elsewhere.

const clock0 uint64 = 1_700_000_000

var (
	alice = domain.Address("SP_ALICE")
	bob   = domain.Address("SP_BOB")
	carol = domain.Address("SP_CAROL")
)

func pubKey(b byte) []byte {
	k := make([]byte, domain.PublicKeySize)
	k[0] = 0x02
	k[len(k)-1] = b
	return k
}

func hashBytes(b byte) []byte {
	return []byte(strings.Repeat(string([]byte{b}), domain.HashSize))
}

func hashOf(b byte) domain.Hash {
	h, _ := domain.HashFromBytes(hashBytes(b))
	return h
}

type LedgerServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	mockAudit *mocks.MockAuditPublisher
	store     *memory.InMemory
	metrics   *ledgermetrics.Metrics
	service   *Service
}

func TestLedgerServiceSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceSuite))
}

func (s *LedgerServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockAudit = mocks.NewMockAuditPublisher(s.ctrl)
	s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	s.store = memory.New()
	s.metrics = ledgermetrics.New(prometheus.NewRegistry())
	s.service = s.newService(models.GuardModeLegacy)
}

func (s *LedgerServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *LedgerServiceSuite) newService(mode models.GuardMode) *Service {
	svc, err := New(s.store,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.mockAudit),
		WithMetrics(s.metrics),
		WithGuardMode(mode),
	)
	s.Require().NoError(err)
	return svc
}

// as returns a context carrying caller and ledger clock.
func as(caller domain.Address, clock uint64) context.Context {
	ctx := requestcontext.WithCaller(context.Background(), caller)
	return requestcontext.WithClock(ctx, clock)
}

func (s *LedgerServiceSuite) register(caller domain.Address, hash byte) *models.Identity {
	identity, err := s.service.RegisterIdentity(as(caller, clock0), pubKey(hash), hashBytes(hash))
	s.Require().NoError(err)
	return identity
}

// requireFailure asserts the internal code and the legacy kind reported for op.
func (s *LedgerServiceSuite) requireFailure(op models.Operation, err error, code dErrors.Code, legacy models.LegacyKind) {
	s.T().Helper()
	s.Require().Error(err)
	s.Equal(code, dErrors.CodeOf(err), "internal code: %v", err)
	kind, ok := models.LegacyKindFor(op, err)
	s.Require().True(ok, "expected a legacy kind for %v", err)
	s.Equal(legacy, kind)
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *LedgerServiceSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil)
		s.Require().Error(err)
		s.Contains(err.Error(), "ledger store is required")
	})

	s.Run("defaults to legacy guard mode", func() {
		svc, err := New(memory.New())
		s.Require().NoError(err)
		s.Equal(models.GuardModeLegacy, svc.Mode())
		s.NotNil(svc.logger)
		s.NotNil(svc.tracer)
	})

	s.Run("with options applies options", func() {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		svc, err := New(memory.New(),
			WithLogger(logger),
			WithAuditPublisher(s.mockAudit),
			WithGuardMode(models.GuardModeStrict),
		)
		s.Require().NoError(err)
		s.Equal(logger, svc.logger)
		s.Equal(s.mockAudit, svc.auditPublisher)
		s.Equal(models.GuardModeStrict, svc.Mode())
	})
}

// =============================================================================
// Caller and Store Failure Tests
// =============================================================================

func (s *LedgerServiceSuite) TestMissingCaller() {
	ctx := requestcontext.WithClock(context.Background(), clock0)

	_, err := s.service.RegisterIdentity(ctx, pubKey(1), hashBytes(1))
	s.requireFailure(models.OpRegisterIdentity, err, dErrors.CodeUnauthorized, models.LegacyUnauthorizedAccess)

	_, err = s.service.InitiateDisclosureRequest(ctx, hashBytes(9), nil)
	s.requireFailure(models.OpInitiateDisclosureRequest, err, dErrors.CodeUnauthorized, models.LegacyUnauthorizedAccess)
}

type failingStore struct {
	err error
}

func (f failingStore) RunInTx(context.Context, func(store.Tx) error) error { return f.err }
func (f failingStore) Close() error                                        { return nil }

func (s *LedgerServiceSuite) TestStoreFailuresAreNormalized() {
	s.Run("unexpected store error becomes internal", func() {
		svc, err := New(failingStore{err: errors.New("disk gone")})
		s.Require().NoError(err)
		_, err = svc.RegisterIdentity(as(alice, clock0), pubKey(1), hashBytes(1))
		s.Equal(dErrors.CodeInternal, dErrors.CodeOf(err))
		_, ok := models.LegacyKindFor(models.OpRegisterIdentity, err)
		s.False(ok, "internal failures have no legacy kind")
	})

	s.Run("lost store race is retryable and has no legacy kind", func() {
		svc, err := New(failingStore{err: fmt.Errorf("commit ledger tx: %w", sentinel.ErrConflict)})
		s.Require().NoError(err)

		ctx := as(alice, clock0)
		_, err = svc.RegisterIdentity(ctx, pubKey(1), hashBytes(1))
		s.assertLostRace(models.OpRegisterIdentity, err)

		_, _, err = svc.AddCredential(ctx, hashBytes(2), clock0+100, "education")
		s.assertLostRace(models.OpAddCredential, err)

		_, err = svc.ApproveDisclosure(ctx, hashBytes(3), hashBytes(1))
		s.assertLostRace(models.OpApproveDisclosure, err)

		_, err = svc.InitiateDisclosureRequest(ctx, hashBytes(3), []string{"name"})
		s.assertLostRace(models.OpInitiateDisclosureRequest, err)
	})

	s.Run("cancelled context becomes timeout", func() {
		svc, err := New(failingStore{err: context.Canceled})
		s.Require().NoError(err)
		_, err = svc.GetIdentity(context.Background(), alice)
		s.Equal(dErrors.CodeTimeout, dErrors.CodeOf(err))
	})
}

func (s *LedgerServiceSuite) assertLostRace(op models.Operation, err error) {
	s.T().Helper()
	s.Require().Error(err)
	s.Equal(dErrors.CodeConcurrentUpdate, dErrors.CodeOf(err), "%s: %v", op, err)
	s.ErrorIs(err, sentinel.ErrConflict)
	kind, ok := models.LegacyKindFor(op, err)
	s.False(ok, "%s reported legacy kind %q for a lost race", op, kind)
}

// =============================================================================
// Audit and Metrics Tests
// =============================================================================

func (s *LedgerServiceSuite) TestAuditEmission() {
	s.Run("successful mutation emits one event after commit", func() {
		ctrl := gomock.NewController(s.T())
		publisher := mocks.NewMockAuditPublisher(ctrl)
		svc, err := New(memory.New(), WithAuditPublisher(publisher))
		s.Require().NoError(err)

		publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, event audit.Event) error {
				s.Equal(string(audit.EventIdentityRegistered), event.Action)
				s.Equal(audit.CategoryCompliance, event.Category)
				s.Equal(alice, event.Caller)
				s.Equal(alice.String(), event.Subject)
				s.Equal(clock0, event.LedgerTime)
				return nil
			})

		_, err = svc.RegisterIdentity(as(alice, clock0), pubKey(1), hashBytes(1))
		s.Require().NoError(err)
	})

	s.Run("rejected mutation emits nothing", func() {
		ctrl := gomock.NewController(s.T())
		publisher := mocks.NewMockAuditPublisher(ctrl)
		svc, err := New(memory.New(), WithAuditPublisher(publisher))
		s.Require().NoError(err)

		publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Times(0)

		_, err = svc.RegisterIdentity(as(alice, clock0), pubKey(1), hashBytes(1)[:31])
		s.Require().Error(err)
	})

	s.Run("publisher failure does not fail the operation", func() {
		ctrl := gomock.NewController(s.T())
		publisher := mocks.NewMockAuditPublisher(ctrl)
		st := memory.New()
		svc, err := New(st, WithAuditPublisher(publisher))
		s.Require().NoError(err)

		publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

		_, err = svc.RegisterIdentity(as(alice, clock0), pubKey(1), hashBytes(1))
		s.Require().NoError(err)
		got, err := svc.GetIdentity(context.Background(), alice)
		s.Require().NoError(err)
		s.Equal(alice, got.Owner)
	})
}

func (s *LedgerServiceSuite) TestMetrics() {
	s.register(alice, 1)
	_, err := s.service.RegisterIdentity(as(alice, clock0), pubKey(1), hashBytes(1))
	s.Require().Error(err)

	s.InDelta(1, testutil.ToFloat64(s.metrics.IdentitiesRegistered), 0)
	s.InDelta(1, testutil.ToFloat64(s.metrics.OperationsTotal.WithLabelValues(string(models.OpRegisterIdentity), ledgermetrics.OutcomeSuccess)), 0)
	s.InDelta(1, testutil.ToFloat64(s.metrics.OperationsTotal.WithLabelValues(string(models.OpRegisterIdentity), ledgermetrics.OutcomeFailure)), 0)
	s.InDelta(1, testutil.ToFloat64(s.metrics.LegacyErrors.WithLabelValues(string(models.OpRegisterIdentity), string(models.LegacyIdentityExists))), 0)
}
