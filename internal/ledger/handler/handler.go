package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"clearledger/internal/ledger/models"
	"clearledger/internal/platform/middleware"
	"clearledger/pkg/domain"
	dErrors "clearledger/pkg/domain-errors"
	"clearledger/pkg/platform/httputil"
	"clearledger/pkg/requestcontext"
)

// Service defines the interface for ledger operations.
type Service interface {
	Create(ctx context.Context, req models.CreateLedgerRequest) (*models.Ledger, error)
	List(ctx context.Context) ([]*models.Ledger, error)
	Get(ctx context.Context, id domain.LedgerID) (*models.Ledger, error)
	AddMember(ctx context.Context, id domain.LedgerID, req models.AddMemberRequest) (*models.Member, error)
	RecordTransaction(ctx context.Context, id domain.LedgerID, req models.RecordTransactionRequest) (*models.Transaction, error)
	ListTransactions(ctx context.Context, id domain.LedgerID, page models.PageRequest) (*models.Page[*models.Transaction], error)
}

// Handler handles ledger and transaction endpoints.
type Handler struct {
	ledgers Service
	logger  *slog.Logger
}

func New(ledgers Service, logger *slog.Logger) *Handler {
	return &Handler{ledgers: ledgers, logger: logger}
}

// Register mounts the ledger routes; all of them require a current user.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/ledgers", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Post("/members", h.handleAddMember)
			r.Post("/transactions", h.handleRecordTransaction)
			r.Get("/transactions", h.handleListTransactions)
		})
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateLedgerRequest
	if !h.decode(w, r, &req) {
		return
	}
	ledger, err := h.ledgers.Create(r.Context(), req)
	if err != nil {
		h.writeError(r.Context(), w, err, "failed to create ledger")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, ledger)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ledgers, err := h.ledgers.List(r.Context())
	if err != nil {
		h.writeError(r.Context(), w, err, "failed to list ledgers")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ledgers)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ledgerID(w, r)
	if !ok {
		return
	}
	ledger, err := h.ledgers.Get(r.Context(), id)
	if err != nil {
		h.writeError(r.Context(), w, err, "failed to get ledger")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ledger)
}

func (h *Handler) handleAddMember(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ledgerID(w, r)
	if !ok {
		return
	}
	var req models.AddMemberRequest
	if !h.decode(w, r, &req) {
		return
	}
	member, err := h.ledgers.AddMember(r.Context(), id, req)
	if err != nil {
		h.writeError(r.Context(), w, err, "failed to share ledger")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, member)
}

func (h *Handler) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ledgerID(w, r)
	if !ok {
		return
	}
	var req models.RecordTransactionRequest
	if !h.decode(w, r, &req) {
		return
	}
	txn, err := h.ledgers.RecordTransaction(r.Context(), id, req)
	if err != nil {
		h.writeError(r.Context(), w, err, "failed to record transaction")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, txn)
}

func (h *Handler) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ledgerID(w, r)
	if !ok {
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		h.writeError(r.Context(), w, err, "invalid paging parameters")
		return
	}
	result, err := h.ledgers.ListTransactions(r.Context(), id, page)
	if err != nil {
		h.writeError(r.Context(), w, err, "failed to list transactions")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func pageFromQuery(r *http.Request) (models.PageRequest, error) {
	var page models.PageRequest
	q := r.URL.Query()
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return page, dErrors.New(dErrors.CodeBadRequest, "page must be a number")
		}
		page.Page = n
	}
	if raw := q.Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return page, dErrors.New(dErrors.CodeBadRequest, "size must be a number")
		}
		page.Size = n
	}
	return page, nil
}

func (h *Handler) ledgerID(w http.ResponseWriter, r *http.Request) (domain.LedgerID, bool) {
	id, err := domain.ParseLedgerID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(r.Context(), w, err, "invalid ledger id")
		return "", false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(r.Context(), w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body"), "invalid request body")
		return false
	}
	return true
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	attrs := []any{
		"error", err,
		"user_id", requestcontext.UserID(ctx),
		"request_id", requestcontext.RequestID(ctx),
	}
	if de, ok := dErrors.As(err); ok && de.Code != dErrors.CodeInternal {
		h.logger.WarnContext(ctx, msg, attrs...)
	} else {
		h.logger.ErrorContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
