package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deusflow/newsrelay/internal/metrics"
	"github.com/deusflow/newsrelay/internal/news"
	"github.com/deusflow/newsrelay/internal/relay"
)

// Runner executes one cycle.
type Runner interface {
	Run(ctx context.Context, cycle relay.Cycle, categories ...news.Category) (*relay.Report, error)
}

type Handler struct {
	ctx     context.Context
	runner  Runner
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewHandler builds the handlers. Manual runs use ctx instead of the request
// context: they survive a dropped client and stop when ctx is cancelled at
// shutdown.
func NewHandler(ctx context.Context, runner Runner, m *metrics.Metrics, log *slog.Logger) *Handler {
	return &Handler{ctx: ctx, runner: runner, metrics: m, log: log}
}

func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (h *Handler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.GetStats())
}

func (h *Handler) TriggerRSS(c *gin.Context) {
	h.trigger(c, relay.CycleRSS)
}

func (h *Handler) TriggerOther(c *gin.Context) {
	h.trigger(c, relay.CycleOther)
}

// TriggerAll runs the RSS cycle, then the other-sources cycle.
func (h *Handler) TriggerAll(c *gin.Context) {
	h.trigger(c, relay.CycleRSS, relay.CycleOther)
}

func (h *Handler) trigger(c *gin.Context, cycles ...relay.Cycle) {
	var req TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, TriggerResponse{Status: "error", Error: "invalid request body"})
		return
	}

	var categories []news.Category
	if req.Category != "" {
		cat, err := news.ParseCategory(req.Category)
		if err != nil {
			c.JSON(http.StatusBadRequest, TriggerResponse{Status: "error", Error: err.Error()})
			return
		}
		categories = append(categories, cat)
	}

	resp := TriggerResponse{Status: "ok"}
	for _, cycle := range cycles {
		h.log.Info("manual trigger", "cycle", cycle, "category", req.Category)
		report, err := h.runner.Run(h.ctx, cycle, categories...)
		if err != nil {
			resp.Status = "error"
			resp.Error = err.Error()
			status := http.StatusInternalServerError
			if errors.Is(err, relay.ErrCycleBusy) {
				status = http.StatusConflict
			}
			h.log.Error("manual trigger failed", "cycle", cycle, "err", err)
			c.JSON(status, resp)
			return
		}
		resp.Reports = append(resp.Reports, report)
	}
	c.JSON(http.StatusOK, resp)
}
