package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ibanmanager/internal/iban/models"
	"ibanmanager/internal/iban/service"
	"ibanmanager/internal/iban/validation"
	id "ibanmanager/pkg/domain"
	dErrors "ibanmanager/pkg/domain-errors"
	"ibanmanager/pkg/platform/audit"
	"ibanmanager/pkg/platform/httputil"
	"ibanmanager/pkg/requestcontext"
)

// Service is the IBAN use-case surface the HTTP layer depends on.
type Service interface {
	Allocate(ctx context.Context, cmd service.AllocateCommand) (*models.IBAN, error)
	Get(ctx context.Context, ibanID id.IBANID) (*models.IBAN, error)
	GetByIBAN(ctx context.Context, value string) (*models.IBAN, error)
	ListByAccount(ctx context.Context, accountID string) ([]*models.IBAN, error)
	ListByStatus(ctx context.Context, status models.Status) ([]*models.IBAN, error)
	List(ctx context.Context, limit, offset int) ([]*models.IBAN, error)
	Activate(ctx context.Context, ibanID id.IBANID) (*models.IBAN, error)
	Block(ctx context.Context, ibanID id.IBANID, reason string) (*models.IBAN, error)
	Close(ctx context.Context, ibanID id.IBANID, reason string) (*models.IBAN, error)
	ValidateIBAN(iban, expectedCountry string) validation.Result
	History(ctx context.Context, ibanID id.IBANID) ([]audit.Event, error)
}

// Handler serves the /ibans endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: svc,
	}
}

// Register mounts the IBAN routes. Authentication is applied by the caller.
func (h *Handler) Register(r chi.Router) {
	r.Route("/ibans", func(r chi.Router) {
		r.Post("/", h.handleAllocate)
		r.Get("/", h.handleList)
		r.Post("/validate", h.handleValidate)
		r.Get("/lookup/{iban}", h.handleLookup)
		r.Get("/{id}", h.handleGet)
		r.Get("/{id}/audit", h.handleHistory)
		r.Post("/{id}/activate", h.handleActivate)
		r.Post("/{id}/block", h.handleBlock)
		r.Post("/{id}/close", h.handleClose)
	})
}

func (h *Handler) handleAllocate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[AllocateRequest](w, r, h.logger)
	if !ok {
		return
	}

	iban, err := h.service.Allocate(ctx, req.Command())
	if err != nil {
		h.logFailure(ctx, "failed to allocate IBAN", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "IBAN allocated",
		"iban_id", iban.ID.String(),
		"country_code", iban.CountryCode.Code(),
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusCreated, iban)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ibanID, ok := h.parseID(w, r)
	if !ok {
		return
	}
	iban, err := h.service.Get(ctx, ibanID)
	if err != nil {
		h.logFailure(ctx, "failed to get IBAN", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, iban)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ibanID, ok := h.parseID(w, r)
	if !ok {
		return
	}
	events, err := h.service.History(ctx, ibanID)
	if err != nil {
		h.logFailure(ctx, "failed to load IBAN audit trail", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &HistoryResponse{Events: events, Count: len(events)})
}

func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	iban, err := h.service.GetByIBAN(ctx, chi.URLParam(r, "iban"))
	if err != nil {
		h.logFailure(ctx, "failed to look up IBAN", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, iban)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	var (
		ibans []*models.IBAN
		err   error
	)
	switch {
	case query.Get("account") != "":
		ibans, err = h.service.ListByAccount(ctx, query.Get("account"))
	case query.Get("status") != "":
		status, parseErr := models.ParseStatus(query.Get("status"))
		if parseErr != nil {
			httputil.WriteError(w, parseErr)
			return
		}
		ibans, err = h.service.ListByStatus(ctx, status)
	default:
		limit, offset, pageErr := parsePage(query.Get("limit"), query.Get("offset"))
		if pageErr != nil {
			httputil.WriteError(w, pageErr)
			return
		}
		ibans, err = h.service.List(ctx, limit, offset)
	}
	if err != nil {
		h.logFailure(ctx, "failed to list IBANs", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, newListResponse(ibans))
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, func(ctx context.Context, ibanID id.IBANID, _ string) (*models.IBAN, error) {
		return h.service.Activate(ctx, ibanID)
	})
}

func (h *Handler) handleBlock(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.Block)
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.Close)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, apply func(context.Context, id.IBANID, string) (*models.IBAN, error)) {
	ctx := r.Context()

	ibanID, ok := h.parseID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeOptionalAndPrepare[StatusChangeRequest](w, r, h.logger)
	if !ok {
		return
	}

	iban, err := apply(ctx, ibanID, req.Reason)
	if err != nil {
		h.logFailure(ctx, "failed to change IBAN status", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "IBAN status changed",
		"iban_id", iban.ID.String(),
		"status", iban.Status.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, iban)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[ValidateRequest](w, r, h.logger)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.service.ValidateIBAN(req.IBAN, req.CountryCode))
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (id.IBANID, bool) {
	ibanID, err := id.ParseIBANID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.IBANID{}, false
	}
	return ibanID, true
}

// logFailure logs client errors at warn and everything else at error.
func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	level := slog.LevelError
	var de *dErrors.Error
	if errors.As(err, &de) && de.StatusHint() < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	h.logger.Log(ctx, level, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}

func parsePage(rawLimit, rawOffset string) (int, int, error) {
	var limit, offset int
	var err error
	if rawLimit != "" {
		if limit, err = strconv.Atoi(rawLimit); err != nil {
			return 0, 0, dErrors.New(dErrors.CodeBadRequest, "limit must be an integer")
		}
	}
	if rawOffset != "" {
		if offset, err = strconv.Atoi(rawOffset); err != nil {
			return 0, 0, dErrors.New(dErrors.CodeBadRequest, "offset must be an integer")
		}
	}
	return limit, offset, nil
}
