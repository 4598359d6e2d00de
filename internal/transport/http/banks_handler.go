package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "bankscli/internal/errors"
	"bankscli/internal/middleware"
	"bankscli/internal/services"
	api "bankscli/pkg/contracts/api/v1"
)

// BanksHandler serves the persisted ranking table
type BanksHandler struct {
	service   BanksService
	validator *middleware.Validator
	logger    *slog.Logger
}

// NewBanksHandler creates a new banks handler
func NewBanksHandler(service BanksService, validator *middleware.Validator, logger *slog.Logger) *BanksHandler {
	return &BanksHandler{
		service:   service,
		validator: validator,
		logger:    logger.With(slog.String("component", "banks_handler")),
	}
}

// Routes returns the banks routes
func (h *BanksHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/", h.List)
	return r
}

// List handles GET /api/banks?min_metric=150&limit=10
func (h *BanksHandler) List(w http.ResponseWriter, r *http.Request) {
	req, apiErr := h.parseRequest(r)
	if apiErr != nil {
		h.renderError(w, r, apiErr)
		return
	}
	if apiErr := h.validator.ValidateStruct(req); apiErr != nil {
		h.renderError(w, r, apiErr)
		return
	}

	resp, err := h.service.Banks(r.Context(), req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to query banks",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		if errors.Is(err, services.ErrTableNotFound) {
			h.renderError(w, r, apierrors.NotFoundError("ranking table"))
			return
		}
		if errors.Is(err, services.ErrStoreClosed) {
			h.renderError(w, r, apierrors.ErrServiceUnavailable)
			return
		}
		h.renderError(w, r, apierrors.FromAppError(err))
		return
	}

	render.JSON(w, r, resp)
}

func (h *BanksHandler) parseRequest(r *http.Request) (api.BanksRequest, *apierrors.APIError) {
	q := r.URL.Query()
	req := api.BanksRequest{MinMetric: h.service.DefaultMinMetric()}

	if raw := q.Get("min_metric"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, apierrors.InvalidParameter("min_metric", err)
		}
		req.MinMetric = v
	}
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return req, apierrors.InvalidParameter("limit", err)
		}
		req.Limit = v
	}
	return req, nil
}

func (h *BanksHandler) renderError(w http.ResponseWriter, r *http.Request, apiErr *apierrors.APIError) {
	if err := render.Render(w, r, apierrors.NewErrorResponse(apiErr)); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render error", slog.String("error", err.Error()))
	}
}
