// Package httpapi exposes the pipeline over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"LeadScanner/internal/ports"
	"LeadScanner/internal/usecase"
)

// RetryAfter is advertised when a run ran out of time.
const RetryAfter = 30 * time.Second

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, req usecase.Request) (usecase.Result, error)
}

// Handler serves the lead discovery API.
type Handler struct {
	runner   Runner
	defaults usecase.Request
	leads    ports.LeadReader
	logger   *slog.Logger
}

// NewHandler binds a runner to request defaults. leads may be nil.
func NewHandler(runner Runner, defaults usecase.Request, leads ports.LeadReader, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{runner: runner, defaults: defaults, leads: leads, logger: logger}
}

// NewServer builds the echo instance with all routes.
func NewServer(h *Handler, metrics http.Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			h.logger.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	e.GET("/healthz", h.health)
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}

	api := e.Group("/api/v1")
	api.POST("/leads/discover", h.discover)
	api.GET("/runs/:id/leads", h.runLeads)

	return e
}

// discoverRequest overrides the configured defaults. Durations use Go syntax ("30s").
type discoverRequest struct {
	Queries       []string `json:"queries"`
	MaxItems      *int     `json:"maxItems"`
	PerQueryItems *int     `json:"perQueryItems"`
	BatchSize     *int     `json:"batchSize"`
	BatchDelay    string   `json:"batchDelay"`
	SoftDeadline  string   `json:"softDeadline"`
	ResolveURLs   *bool    `json:"resolveUrls"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) discover(c echo.Context) error {
	var body discoverRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body"})
	}

	req, err := h.merge(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	result, err := h.runner.Run(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidRequest) {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		h.logger.Error("discover failed", "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}

	if result.Outcome == usecase.OutcomeDeadlineExceeded {
		c.Response().Header().Set("Retry-After", strconv.Itoa(int(RetryAfter.Seconds())))
		return c.JSON(http.StatusServiceUnavailable, result)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) runLeads(c echo.Context) error {
	if h.leads == nil {
		return c.JSON(http.StatusNotImplemented, errorResponse{Error: "lead storage is not configured"})
	}

	leads, err := h.leads.LeadsByRun(c.Request().Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("load leads", "run_id", c.Param("id"), "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
	if len(leads) == 0 {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "no leads for run"})
	}
	return c.JSON(http.StatusOK, map[string]any{"runId": c.Param("id"), "leads": leads})
}

func (h *Handler) merge(body discoverRequest) (usecase.Request, error) {
	req := h.defaults
	req.Queries = append([]string(nil), h.defaults.Queries...)

	if len(body.Queries) > 0 {
		req.Queries = body.Queries
	}
	if body.MaxItems != nil {
		req.MaxItems = *body.MaxItems
	}
	if body.PerQueryItems != nil {
		req.PerQueryItems = *body.PerQueryItems
	}
	if body.BatchSize != nil {
		req.BatchSize = *body.BatchSize
	}
	if body.ResolveURLs != nil {
		req.ResolveURLs = *body.ResolveURLs
	}
	if body.BatchDelay != "" {
		d, err := time.ParseDuration(body.BatchDelay)
		if err != nil {
			return usecase.Request{}, fmt.Errorf("batchDelay: %w", err)
		}
		req.BatchDelay = d
	}
	if body.SoftDeadline != "" {
		d, err := time.ParseDuration(body.SoftDeadline)
		if err != nil {
			return usecase.Request{}, fmt.Errorf("softDeadline: %w", err)
		}
		req.SoftDeadline = d
		if req.SafetyMargin >= d || req.MinExtractBudget >= d {
			// Let the pipeline derive both from the shorter budget.
			req.SafetyMargin, req.MinExtractBudget = 0, 0
		}
	}

	if err := req.Validate(); err != nil {
		return usecase.Request{}, err
	}
	return req, nil
}
