// Package handler exposes the certificate number codec and the certificate
// registry over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"marriage-registry/internal/certificate/models"
	"marriage-registry/pkg/certno"
	id "marriage-registry/pkg/domain"
	dErrors "marriage-registry/pkg/domain-errors"
	"marriage-registry/pkg/platform/httputil"
	"marriage-registry/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/certificate-mocks.go -package=mocks Service

// Service defines the certificate operations the HTTP layer needs.
// Returns domain objects, not HTTP response DTOs.
type Service interface {
	Issue(ctx context.Context, cmd models.IssueCommand) (*models.Certificate, error)
	Get(ctx context.Context, certID id.CertificateID) (*models.Certificate, error)
	List(ctx context.Context, offset, limit int) (*models.Page, error)
	Revoke(ctx context.Context, certID id.CertificateID, reason string) (*models.Certificate, error)
	Verify(ctx context.Context, raw string) (*models.Verification, error)
	Decode(raw string) *models.Decoded
	Preview(n certno.Number) string
	Books() []certno.Book
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/certificate-numbers/books", h.HandleBooks)
	r.Post("/certificate-numbers/parse", h.HandleParse)
	r.Post("/certificate-numbers/format", h.HandleFormat)
	r.Post("/certificates/verify", h.HandleVerify)
}

// RegisterAdmin mounts the registrar routes. The caller is responsible for
// putting them behind admin authentication.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/certificates", h.HandleIssue)
	r.Get("/admin/certificates", h.HandleList)
	r.Get("/admin/certificates/{id}", h.HandleGet)
	r.Post("/admin/certificates/{id}/revoke", h.HandleRevoke)
}

// HandleBooks lists the book numerals for the book selector.
func (h *Handler) HandleBooks(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, &BooksResponse{Books: h.service.Books()})
}

// HandleParse decodes a raw number into form fields. Unrecognised input is
// not an error; the response carries the default record and defaulted=true.
func (h *Handler) HandleParse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ParseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	httputil.WriteJSON(w, http.StatusOK, h.service.Decode(req.CertificateNumber))
}

// HandleFormat renders the compact number for the fields entered so far.
func (h *Handler) HandleFormat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[FormatRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &FormatResponse{
		CertificateNumber: h.service.Preview(req.Number.toNumber()),
	})
}

// HandleVerify is the public authenticity check.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	v, err := h.service.Verify(ctx, req.CertificateNumber)
	if err != nil {
		h.logFailure(ctx, "verify certificate failed", err, requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, v)
}

// HandleIssue registers a certificate.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[IssueRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	cmd, err := req.toCommand()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cert, err := h.service.Issue(ctx, cmd)
	if err != nil {
		h.logFailure(ctx, "issue certificate failed", err, requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toCertificateResponse(cert))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	offset, err := queryInt(r, "offset")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	page, err := h.service.List(ctx, offset, limit)
	if err != nil {
		h.logFailure(ctx, "list certificates failed", err, requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toListResponse(page))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	certID, err := id.ParseCertificateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cert, err := h.service.Get(ctx, certID)
	if err != nil {
		h.logFailure(ctx, "get certificate failed", err, requestID, "certificate_id", certID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toCertificateResponse(cert))
}

// HandleRevoke withdraws a certificate. Revoking twice is a conflict.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	certID, err := id.ParseCertificateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[RevokeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	cert, err := h.service.Revoke(ctx, certID, req.Reason)
	if err != nil {
		h.logFailure(ctx, "revoke certificate failed", err, requestID, "certificate_id", certID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toCertificateResponse(cert))
}

// logFailure logs client errors at warn and everything else at error.
func (h *Handler) logFailure(ctx context.Context, msg string, err error, requestID string, args ...any) {
	args = append([]any{"error", err, "request_id", requestID}, args...)
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, "":
		h.logger.ErrorContext(ctx, msg, args...)
	default:
		h.logger.WarnContext(ctx, msg, args...)
	}
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, name+" must be a non-negative integer")
	}
	return n, nil
}
