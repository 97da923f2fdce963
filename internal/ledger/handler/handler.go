package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"idledger/internal/ledger/models"
	"idledger/pkg/domain"
	audit "idledger/pkg/platform/audit"
	"idledger/pkg/platform/httputil"
	"idledger/pkg/requestcontext"
)

// Service defines the ledger operations the HTTP surface exposes.
type Service interface {
	RegisterIdentity(ctx context.Context, publicKey, identityHash []byte) (*models.Identity, error)
	UpdateIdentity(ctx context.Context, newIdentityHash, newPublicKey []byte) (*models.Identity, error)
	RevokeIdentity(ctx context.Context) (*models.Identity, error)
	GetIdentity(ctx context.Context, owner domain.Address) (*models.Identity, error)

	AddCredential(ctx context.Context, credentialHash []byte, expirationTime uint64, category string) (*models.Credential, *models.Identity, error)
	RevokeCredential(ctx context.Context, credentialHash []byte) (*models.Credential, error)
	GetCredential(ctx context.Context, hash domain.Hash) (*models.Credential, error)
	CheckCredentialValidity(ctx context.Context, hash domain.Hash) (bool, error)

	InitiateDisclosureRequest(ctx context.Context, requestID []byte, attributes []string) (*models.DisclosureRequest, error)
	ApproveDisclosure(ctx context.Context, requestID, verificationProof []byte) (*models.DisclosureRequest, error)
	GetDisclosureRequest(ctx context.Context, id domain.Hash) (*models.DisclosureRequest, error)
	VerifyDisclosureRequest(ctx context.Context, id, proof domain.Hash) (bool, error)
}

// AuditReader answers operator queries over published audit events.
type AuditReader interface {
	List(ctx context.Context, caller domain.Address) ([]audit.Event, error)
}

// Handler wires ledger endpoints to the ledger service.
type Handler struct {
	service Service
	audit   AuditReader
	logger  *slog.Logger
}

// New constructs a ledger handler. auditReader may be nil, in which case the
// admin audit route is not mounted.
func New(service Service, auditReader AuditReader, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		audit:   auditReader,
		logger:  logger,
	}
}

// Register mounts ledger endpoints. Reads are public; mutations run behind
// requireCaller, which must place the caller address in the context.
func (h *Handler) Register(r chi.Router, requireCaller func(http.Handler) http.Handler) {
	r.Route("/ledger", func(r chi.Router) {
		r.Get("/identities/{address}", h.HandleGetIdentity)
		r.Get("/credentials/{hash}", h.HandleGetCredential)
		r.Get("/credentials/{hash}/validity", h.HandleCheckCredentialValidity)
		r.Get("/disclosures/{id}", h.HandleGetDisclosureRequest)
		r.Get("/disclosures/{id}/verify", h.HandleVerifyDisclosureRequest)

		r.Group(func(r chi.Router) {
			r.Use(requireCaller)
			r.Post("/identities", h.HandleRegisterIdentity)
			r.Put("/identity", h.HandleUpdateIdentity)
			r.Post("/identity/revoke", h.HandleRevokeIdentity)
			r.Post("/credentials", h.HandleAddCredential)
			r.Post("/credentials/{hash}/revoke", h.HandleRevokeCredential)
			r.Post("/disclosures", h.HandleInitiateDisclosureRequest)
			r.Post("/disclosures/{id}/approve", h.HandleApproveDisclosure)
		})
	})
}

// RegisterAdmin mounts operator endpoints behind requireAdmin.
func (h *Handler) RegisterAdmin(r chi.Router, requireAdmin func(http.Handler) http.Handler) {
	if h.audit == nil {
		return
	}
	r.With(requireAdmin).Get("/admin/audit/{address}", h.HandleListAudit)
}

// writeError writes the error envelope, adding the legacy code when the
// operation has one for err.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op models.Operation, err error) {
	ctx := r.Context()
	resp := httputil.NewErrorResponse(err)
	if kind, ok := models.LegacyKindFor(op, err); ok {
		resp.LegacyCode = string(kind)
		resp.LegacyStatus = kind.Status()
	}
	status := httputil.StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "ledger request failed",
			"operation", string(op),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteJSON(w, status, resp)
}

func (h *Handler) logSuccess(ctx context.Context, op models.Operation, start time.Time) {
	h.logger.DebugContext(ctx, "ledger request served",
		"operation", string(op),
		"caller", requestcontext.Caller(ctx).String(),
		"request_id", requestcontext.RequestID(ctx),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// HandleRegisterIdentity handles POST /ledger/identities.
func (h *Handler) HandleRegisterIdentity(w http.ResponseWriter, r *http.Request) {
	const op = models.OpRegisterIdentity
	ctx, start := r.Context(), time.Now()

	req, err := httputil.Decode[RegisterIdentityRequest](r)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	identity, err := h.service.RegisterIdentity(ctx, req.publicKey, req.identityHash)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	h.logSuccess(ctx, op, start)
	httputil.WriteJSON(w, http.StatusCreated, identity)
}

// HandleUpdateIdentity handles PUT /ledger/identity.
func (h *Handler) HandleUpdateIdentity(w http.ResponseWriter, r *http.Request) {
	const op = models.OpUpdateIdentity
	ctx, start := r.Context(), time.Now()

	req, err := httputil.Decode[UpdateIdentityRequest](r)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	identity, err := h.service.UpdateIdentity(ctx, req.identityHash, req.publicKey)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	h.logSuccess(ctx, op, start)
	httputil.WriteJSON(w, http.StatusOK, identity)
}

// HandleRevokeIdentity handles POST /ledger/identity/revoke.
func (h *Handler) HandleRevokeIdentity(w http.ResponseWriter, r *http.Request) {
	const op = models.OpRevokeIdentity
	ctx, start := r.Context(), time.Now()

	identity, err := h.service.RevokeIdentity(ctx)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	h.logSuccess(ctx, op, start)
	httputil.WriteJSON(w, http.StatusOK, identity)
}

// HandleGetIdentity handles GET /ledger/identities/{address}.
func (h *Handler) HandleGetIdentity(w http.ResponseWriter, r *http.Request) {
	const op = models.OpGetIdentity
	owner, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	identity, err := h.service.GetIdentity(r.Context(), owner)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, identity)
}

// HandleAddCredential handles POST /ledger/credentials.
func (h *Handler) HandleAddCredential(w http.ResponseWriter, r *http.Request) {
	const op = models.OpAddCredential
	ctx, start := r.Context(), time.Now()

	req, err := httputil.Decode[AddCredentialRequest](r)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	credential, identity, err := h.service.AddCredential(ctx, req.credentialHash, req.ExpirationTime, req.Category)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	h.logSuccess(ctx, op, start)
	httputil.WriteJSON(w, http.StatusCreated, AddCredentialResponse{
		Credential: credential,
		Identity:   identity,
	})
}

// HandleRevokeCredential handles POST /ledger/credentials/{hash}/revoke.
func (h *Handler) HandleRevokeCredential(w http.ResponseWriter, r *http.Request) {
	const op = models.OpRevokeCredential
	ctx, start := r.Context(), time.Now()

	hash, err := domain.DecodeHex(chi.URLParam(r, "hash"))
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	credential, err := h.service.RevokeCredential(ctx, hash)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	h.logSuccess(ctx, op, start)
	httputil.WriteJSON(w, http.StatusOK, credential)
}

// HandleGetCredential handles GET /ledger/credentials/{hash}.
func (h *Handler) HandleGetCredential(w http.ResponseWriter, r *http.Request) {
	const op = models.OpGetCredential
	hash, err := domain.ParseHash(chi.URLParam(r, "hash"))
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	credential, err := h.service.GetCredential(r.Context(), hash)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, credential)
}

// HandleCheckCredentialValidity handles GET /ledger/credentials/{hash}/validity.
func (h *Handler) HandleCheckCredentialValidity(w http.ResponseWriter, r *http.Request) {
	const op = models.OpCheckCredentialValidity
	hash, err := domain.ParseHash(chi.URLParam(r, "hash"))
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	valid, err := h.service.CheckCredentialValidity(r.Context(), hash)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ValidityResponse{
		Hash:  hash,
		Valid: valid,
		Clock: requestcontext.Clock(r.Context()),
	})
}

// HandleInitiateDisclosureRequest handles POST /ledger/disclosures.
func (h *Handler) HandleInitiateDisclosureRequest(w http.ResponseWriter, r *http.Request) {
	const op = models.OpInitiateDisclosureRequest
	ctx, start := r.Context(), time.Now()

	req, err := httputil.Decode[InitiateDisclosureRequest](r)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	request, err := h.service.InitiateDisclosureRequest(ctx, req.requestID, req.RequestedAttributes)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	h.logSuccess(ctx, op, start)
	httputil.WriteJSON(w, http.StatusCreated, request)
}

// HandleApproveDisclosure handles POST /ledger/disclosures/{id}/approve.
func (h *Handler) HandleApproveDisclosure(w http.ResponseWriter, r *http.Request) {
	const op = models.OpApproveDisclosure
	ctx, start := r.Context(), time.Now()

	id, err := domain.DecodeHex(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	req, err := httputil.Decode[ApproveDisclosureRequest](r)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	request, err := h.service.ApproveDisclosure(ctx, id, req.proof)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	h.logSuccess(ctx, op, start)
	httputil.WriteJSON(w, http.StatusOK, request)
}

// HandleGetDisclosureRequest handles GET /ledger/disclosures/{id}.
func (h *Handler) HandleGetDisclosureRequest(w http.ResponseWriter, r *http.Request) {
	const op = models.OpGetDisclosureRequest
	id, err := domain.ParseHash(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	request, err := h.service.GetDisclosureRequest(r.Context(), id)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, request)
}

// HandleVerifyDisclosureRequest handles GET /ledger/disclosures/{id}/verify?proof=.
func (h *Handler) HandleVerifyDisclosureRequest(w http.ResponseWriter, r *http.Request) {
	const op = models.OpVerifyDisclosureRequest
	id, err := domain.ParseHash(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	proof, err := domain.ParseHash(r.URL.Query().Get("proof"))
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	verified, err := h.service.VerifyDisclosureRequest(r.Context(), id, proof)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, VerifyResponse{ID: id, Verified: verified})
}

// HandleListAudit handles GET /admin/audit/{address}.
func (h *Handler) HandleListAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	events, err := h.audit.List(ctx, caller)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit events",
			"caller", caller.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AuditResponse{Caller: caller, Events: events})
}
