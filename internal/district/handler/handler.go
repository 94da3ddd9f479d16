package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"cityscope/internal/district/models"
	"cityscope/internal/district/resolver"
	"cityscope/internal/district/service"
	dErrors "cityscope/pkg/domain-errors"
	"cityscope/pkg/platform/httputil"
	"cityscope/pkg/requestcontext"
)

// Service defines the district operations the HTTP surface needs.
type Service interface {
	List(ctx context.Context, page models.Page) ([]*models.District, int, error)
	ListDetailed(ctx context.Context, page models.Page) ([]*models.DistrictDetail, int, error)
	GetDetail(ctx context.Context, id int64) (*models.DistrictDetail, error)
	ListMetrics(ctx context.Context, kind models.MetricKind, page models.Page) (models.Metrics, int, error)
	ResolveName(ctx context.Context, name string) (resolver.Match, error)
	ResolveByAddress(ctx context.Context, address string) (*service.AddressResolution, error)
	ResolveByAddressDetailed(ctx context.Context, address string) (*service.AddressResolution, error)
}

// Handler wires district endpoints to the district service.
type Handler struct {
	service      Service
	logger       *slog.Logger
	addressLimit int
	limitWindow  time.Duration
}

type Option func(*Handler)

// WithAddressRateLimit caps resolve-address calls per client IP. A zero
// limit disables it.
func WithAddressRateLimit(limit int, window time.Duration) Option {
	return func(h *Handler) {
		h.addressLimit = limit
		h.limitWindow = window
	}
}

func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{service: service, logger: logger, limitWindow: time.Minute}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts district endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/districts", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/base", h.HandleListBase)
		r.Get("/detailed", h.HandleListDetailed)
		r.Get("/resolve", h.HandleResolve)
		r.Group(func(r chi.Router) {
			if h.addressLimit > 0 {
				r.Use(httprate.LimitByIP(h.addressLimit, h.limitWindow))
			}
			r.Get("/resolve-address", h.HandleResolveAddress)
		})
		r.Get("/metrics/{kind}", h.HandleListMetrics)
		r.Get("/{id}", h.HandleGet)
	})
}

// HandleListBase handles GET /districts/base.
func (h *Handler) HandleListBase(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r, baseLimits)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rows, _, err := h.service.List(r.Context(), page)
	if err != nil {
		h.fail(r, "list districts failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBaseItems(rows))
}

// HandleList handles GET /districts.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r, listLimits)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rows, total, err := h.service.List(r.Context(), page)
	if err != nil {
		h.fail(r, "list districts failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newPage(rows, total, page))
}

// HandleListDetailed handles GET /districts/detailed.
func (h *Handler) HandleListDetailed(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r, detailedLimits)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rows, total, err := h.service.ListDetailed(r.Context(), page)
	if err != nil {
		h.fail(r, "list detailed districts failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newPage(rows, total, page))
}

// HandleGet handles GET /districts/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "id must be a positive integer"))
		return
	}
	detail, err := h.service.GetDetail(r.Context(), id)
	if err != nil {
		h.fail(r, "get district failed", err, "district_id", id)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, detail)
}

// HandleResolve handles GET /districts/resolve?name=.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := ResolveRequest{Name: r.URL.Query().Get("name")}
	req.Normalize()
	if err := validateRequest(&req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	m, err := h.service.ResolveName(ctx, req.Name)
	if err != nil {
		h.fail(r, "resolve district failed", err, "name", req.Name)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "district resolved",
		"request_id", requestcontext.RequestID(ctx),
		"name", req.Name,
		"district_code", m.District.Code,
		"tier", m.Tier,
	)
	httputil.WriteJSON(w, http.StatusOK, ResolveResponse{District: m.District, Tier: m.Tier})
}

// HandleResolveAddress handles GET /districts/resolve-address?address=.
func (h *Handler) HandleResolveAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	q := r.URL.Query()
	req := ResolveAddressRequest{Address: q.Get("address")}
	if raw := q.Get("detailed"); raw != "" {
		detailed, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "detailed must be a boolean"))
			return
		}
		req.Detailed = detailed
	}
	req.Normalize()
	if err := validateRequest(&req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	resolve := h.service.ResolveByAddress
	if req.Detailed {
		resolve = h.service.ResolveByAddressDetailed
	}
	res, err := resolve(ctx, req.Address)
	if err != nil {
		h.fail(r, "resolve address failed", err)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "address resolved",
		"request_id", requestcontext.RequestID(ctx),
		"district_code", res.District.Code,
		"tier", res.Tier,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleListMetrics handles GET /districts/metrics/{kind}.
func (h *Handler) HandleListMetrics(w http.ResponseWriter, r *http.Request) {
	req := MetricsRequest{Kind: chi.URLParam(r, "kind")}
	req.Normalize()
	if err := validateRequest(&req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	page, err := parsePage(r, metricsLimits)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	kind := models.MetricKind(req.Kind)
	rows, total, err := h.service.ListMetrics(r.Context(), kind, page)
	if err != nil {
		h.fail(r, "list metrics failed", err, "kind", kind)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MetricsResponse{
		Kind:  kind,
		Items: rows.Rows(kind),
		Total: total,
		Page:  page.Page,
		Size:  page.Size,
	})
}

// fail logs a failed request, at error level for 5xx outcomes.
func (h *Handler) fail(r *http.Request, msg string, err error, attrs ...any) {
	ctx := r.Context()
	level := slog.LevelInfo
	if de, ok := dErrors.As(err); !ok || dErrors.ToHTTPStatus(de.Code) >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	args := append([]any{"request_id", requestcontext.RequestID(ctx), "error", err}, attrs...)
	h.logger.Log(ctx, level, msg, args...)
}
