package handler_test

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"idledger/internal/ledger/handler"
	"idledger/internal/ledger/models"
	"idledger/internal/ledger/service"
	"idledger/internal/ledger/store/memory"
	"idledger/internal/platform/auth"
	"idledger/pkg/domain"
	authmw "idledger/pkg/platform/middleware/auth"
	"idledger/pkg/platform/middleware/requesttime"
)

// LedgerScenarioSuite drives the full HTTP stack over the in-memory store:
// bearer auth, a controllable clock, the service and the handler.
type LedgerScenarioSuite struct {
	suite.Suite
	mode   models.GuardMode
	jwt    *auth.JWTService
	clock  atomic.Int64
	server *httptest.Server
}

func TestLedgerScenarioSuiteLegacy(t *testing.T) {
	suite.Run(t, &LedgerScenarioSuite{mode: models.GuardModeLegacy})
}

func TestLedgerScenarioSuiteStrict(t *testing.T) {
	suite.Run(t, &LedgerScenarioSuite{mode: models.GuardModeStrict})
}

func (s *LedgerScenarioSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := service.New(memory.New(), service.WithLogger(logger), service.WithGuardMode(s.mode))
	s.Require().NoError(err)

	s.jwt = auth.NewJWTService("scenario-key", "idledger", "idledger-ledger")
	s.clock.Store(1_700_000_000)

	r := chi.NewRouter()
	r.Use(requesttime.WithSource(func() time.Time { return time.Unix(s.clock.Load(), 0) }))
	handler.New(svc, nil, logger).Register(r, authmw.RequireCaller(auth.NewJWTServiceAdapter(s.jwt), logger))
	s.server = httptest.NewServer(r)
}

func (s *LedgerScenarioSuite) TearDownTest() {
	s.server.Close()
}

func (s *LedgerScenarioSuite) call(caller domain.Address, method, path string, body any) (int, map[string]any) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	if caller != "" {
		token, err := s.jwt.IssueToken(caller, time.Hour)
		s.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var out map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func fill(b byte, n int) string {
	return hex.EncodeToString(bytes.Repeat([]byte{b}, n))
}

func (s *LedgerScenarioSuite) register(caller domain.Address, b byte) {
	status, body := s.call(caller, http.MethodPost, "/ledger/identities", map[string]string{
		"public_key":    fill(b, 33),
		"identity_hash": fill(b, 32),
	})
	s.Require().Equal(http.StatusCreated, status, body)
}

func (s *LedgerScenarioSuite) TestMutationsRequireToken() {
	status, body := s.call("", http.MethodPost, "/ledger/identities", map[string]string{})
	s.Equal(http.StatusUnauthorized, status)
	s.Equal("unauthorized", body["error"])
}

func (s *LedgerScenarioSuite) TestCredentialLifecycle() {
	s.register("SP_ALICE", 1)

	status, body := s.call("SP_ALICE", http.MethodPost, "/ledger/credentials", map[string]any{
		"credential_hash": fill(0xc1, 32),
		"expiration_time": 1_700_000_100,
		"category":        "education",
	})
	s.Require().Equal(http.StatusCreated, status, body)

	_, identity := s.call("", http.MethodGet, "/ledger/identities/SP_ALICE", nil)
	s.Equal([]any{fill(0xc1, 32)}, identity["credentials"])

	validity := func() bool {
		_, body := s.call("", http.MethodGet, "/ledger/credentials/"+fill(0xc1, 32)+"/validity", nil)
		return body["valid"].(bool)
	}
	s.True(validity())

	status, body = s.call("SP_BOB", http.MethodPost, "/ledger/credentials/"+fill(0xc1, 32)+"/revoke", nil)
	s.Equal(http.StatusForbidden, status)
	s.Equal("UNAUTHORIZED_ACCESS", body["legacy_code"])
	s.True(validity())

	status, _ = s.call("SP_ALICE", http.MethodPost, "/ledger/credentials/"+fill(0xc1, 32)+"/revoke", nil)
	s.Equal(http.StatusOK, status)
	s.False(validity())

	status, credential := s.call("", http.MethodGet, "/ledger/credentials/"+fill(0xc1, 32), nil)
	s.Require().Equal(http.StatusOK, status)
	s.Equal("SP_ALICE", credential["issuer"])
	s.Equal("education", credential["category"])
	s.Equal(true, credential["revoked"])
	s.EqualValues(1_700_000_000, credential["issuance_time"])

	status, _ = s.call("", http.MethodGet, "/ledger/credentials/"+fill(0xc9, 32), nil)
	s.Equal(http.StatusNotFound, status)
}

func (s *LedgerScenarioSuite) TestCredentialExpiresWithClock() {
	s.register("SP_ALICE", 1)
	status, _ := s.call("SP_ALICE", http.MethodPost, "/ledger/credentials", map[string]any{
		"credential_hash": fill(0xc2, 32),
		"expiration_time": 1_700_000_100,
		"category":        "employment",
	})
	s.Require().Equal(http.StatusCreated, status)

	s.clock.Store(1_700_000_100)
	_, body := s.call("", http.MethodGet, "/ledger/credentials/"+fill(0xc2, 32)+"/validity", nil)
	s.Equal(false, body["valid"])
	s.InDelta(1_700_000_100, body["clock"], 0)

	status, body = s.call("SP_ALICE", http.MethodPost, "/ledger/credentials", map[string]any{
		"credential_hash": fill(0xc3, 32),
		"expiration_time": 1_700_000_050,
		"category":        "employment",
	})
	s.Equal(http.StatusBadRequest, status)
	s.Equal("CREDENTIAL_EXPIRED", body["legacy_code"])
}

func (s *LedgerScenarioSuite) TestDisclosureFlow() {
	s.register("SP_ALICE", 1)
	initiate := map[string]any{"request_id": fill(0x51, 32), "requested_attributes": []string{"name", "age"}}

	status, body := s.call("SP_BOB", http.MethodPost, "/ledger/disclosures", initiate)
	if !s.mode.IsStrict() {
		s.Equal(http.StatusNotFound, status)
		s.Equal("INVALID_INPUT", body["legacy_code"])
		return
	}
	s.Require().Equal(http.StatusCreated, status, body)

	status, body = s.call("SP_BOB", http.MethodPost, "/ledger/disclosures", initiate)
	s.Equal(http.StatusConflict, status)
	s.Equal("INVALID_INPUT", body["legacy_code"])

	status, body = s.call("SP_ALICE", http.MethodPost, "/ledger/disclosures/"+fill(0x51, 32)+"/approve",
		map[string]string{"verification_proof": fill(2, 32)})
	s.Equal(http.StatusUnprocessableEntity, status)
	s.Equal("INVALID_VERIFICATION_PROOF", body["legacy_code"])

	status, body = s.call("SP_ALICE", http.MethodPost, "/ledger/disclosures/"+fill(0x51, 32)+"/approve",
		map[string]string{"verification_proof": fill(1, 32)})
	s.Require().Equal(http.StatusOK, status, body)
	s.Equal(true, body["approved"])

	_, body = s.call("", http.MethodGet, "/ledger/disclosures/"+fill(0x51, 32)+"/verify?proof="+fill(1, 32), nil)
	s.Equal(true, body["verified"])
}

func (s *LedgerScenarioSuite) TestInputLengths() {
	status, body := s.call("SP_ALICE", http.MethodPost, "/ledger/identities", map[string]string{
		"public_key":    fill(2, 32),
		"identity_hash": fill(1, 32),
	})
	s.Equal(http.StatusBadRequest, status)
	s.Equal("INVALID_INPUT", body["legacy_code"])
	s.True(strings.Contains(body["error_description"].(string), "public key"), body)
}
