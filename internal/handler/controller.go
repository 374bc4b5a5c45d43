package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"keyword-intel/internal/service"
	"keyword-intel/pkg/aggregator"
	"keyword-intel/pkg/logger"
	"keyword-intel/pkg/model"
)

// Controller exposes the keyword service over HTTP.
type Controller struct {
	keywords service.KeywordService
	config   ControllerConfig
	log      *logger.Logger
}

type ControllerConfig struct {
	Defaults    model.Defaults
	IncludeSERP bool
	// Gatherer backs /metrics; nil disables the route.
	Gatherer prometheus.Gatherer
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error         string               `json:"error"`
	Source        string               `json:"source,omitempty"`
	Retryable     bool                 `json:"retryable"`
	Cost          float64              `json:"cost"`
	PartialErrors []model.PartialError `json:"partial_errors,omitempty"`
}

type StatusResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func NewController(keywords service.KeywordService, config ControllerConfig, log *logger.Logger) *Controller {
	return &Controller{
		keywords: keywords,
		config:   config,
		log:      logger.OrNop(log).WithField("component", "http"),
	}
}

// NewApp builds a fiber app with the controller's routes registered.
func NewApp(c *Controller) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "keyword-intel",
		DisableStartupMessage: true,
		ErrorHandler:          c.handleFiberError,
	})
	app.Use(c.requestLogger)
	c.Register(app)
	return app
}

func (c *Controller) Register(app *fiber.App) {
	app.Get("/healthz", c.handleHealth)
	if c.config.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(c.config.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := app.Group("/api/v1/keywords")
	v1.Get("/intelligence", c.handleIntelligence)
	v1.Get("/:source", c.handleSource)
}

func (c *Controller) handleHealth(ctx *fiber.Ctx) error {
	return ctx.JSON(StatusResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (c *Controller) handleIntelligence(ctx *fiber.Ctx) error {
	req, err := c.parseRequest(ctx, ctx.Query("source"))
	if err != nil {
		return c.writeError(ctx, err)
	}

	result, err := c.keywords.GetKeywordIntelligence(ctx.UserContext(), req)
	if err != nil {
		return c.writeError(ctx, err)
	}
	ctx.Set("X-Request-ID", result.RequestID)
	return ctx.JSON(result)
}

func (c *Controller) handleSource(ctx *fiber.Ctx) error {
	src := model.Source(strings.ToLower(ctx.Params("source")))
	if !src.Valid() {
		return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "unknown source " + strconv.Quote(string(src))})
	}

	req, err := c.parseRequest(ctx, string(src))
	if err != nil {
		return c.writeError(ctx, err)
	}

	result, err := c.keywords.GetSourceKeywordData(ctx.UserContext(), src, req)
	if err != nil {
		return c.writeError(ctx, err)
	}
	ctx.Set("X-Request-ID", result.RequestID)
	return ctx.JSON(result)
}

func (c *Controller) parseRequest(ctx *fiber.Ctx, rawSources string) (model.MetricRequest, error) {
	params := model.RequestParams{
		Keyword:      ctx.Query("keyword"),
		LanguageCode: ctx.Query("language_code"),
		IncludeSERP:  c.config.IncludeSERP,
	}

	if raw := ctx.Query("location_code"); raw != "" {
		code, err := strconv.Atoi(raw)
		if err != nil {
			return model.MetricRequest{}, &model.ValidationError{Field: "location_code", Message: "must be an integer"}
		}
		params.LocationCode = code
	}

	if raw := ctx.Query("serp"); raw != "" {
		serp, err := strconv.ParseBool(raw)
		if err != nil {
			return model.MetricRequest{}, &model.ValidationError{Field: "serp", Message: "must be a boolean"}
		}
		params.IncludeSERP = serp
	}

	if rawSources != "" {
		sources, err := model.ParseSources(rawSources)
		if err != nil {
			return model.MetricRequest{}, err
		}
		params.Sources = sources
	}

	return model.NewMetricRequest(params, c.config.Defaults)
}

// writeError renders err with the status, retryable flag and cost the
// caller needs to decide on a retry.
func (c *Controller) writeError(ctx *fiber.Ctx, err error) error {
	var (
		ve *model.ValidationError
		ae *aggregator.AggregationError
	)

	switch {
	case errors.As(err, &ve):
		return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: ve.Error()})

	case errors.As(err, &ae):
		status := ae.StatusCode
		if status < 400 || status > 599 {
			status = fiber.StatusInternalServerError
		}
		c.log.WithFields(map[string]interface{}{
			"kind":   string(ae.Kind),
			"source": string(ae.Source),
			"status": status,
			"cost":   ae.Cost,
		}).Warn("Keyword request failed")
		return ctx.Status(status).JSON(ErrorResponse{
			Error:         ae.Message,
			Source:        string(ae.Source),
			Retryable:     ae.Retryable,
			Cost:          ae.Cost,
			PartialErrors: ae.PartialErrors,
		})
	}

	c.log.WithError(err).Error("Unexpected keyword service error")
	return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "internal error"})
}

func (c *Controller) handleFiberError(ctx *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return ctx.Status(fe.Code).JSON(ErrorResponse{Error: fe.Message})
	}
	return c.writeError(ctx, err)
}

func (c *Controller) requestLogger(ctx *fiber.Ctx) error {
	start := time.Now()
	err := ctx.Next()
	c.log.WithFields(map[string]interface{}{
		"method":      ctx.Method(),
		"path":        ctx.Path(),
		"status":      ctx.Response().StatusCode(),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("HTTP request")
	return err
}
