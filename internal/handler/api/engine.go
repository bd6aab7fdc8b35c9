package api

import (
	"time"

	models "TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	"TradePulse/internal/usecase"
	xhttp "TradePulse/pkg/http"
	xlogger "TradePulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// EngineHandler exposes the engine's read surface and its two manual
// operations (close position, promote pattern) over Echo.
type EngineHandler struct {
	logger    *xlogger.Logger
	scheduler *usecase.ScanScheduler
	lifecycle *usecase.Lifecycle
	patterns  *usecase.PatternLibrary
	weights   *usecase.ReliabilityBook
	book      *usecase.PriceBook
	audit     domrepo.AuditStore
	symbol    string
}

func NewEngineHandler(
	logger *xlogger.Logger,
	scheduler *usecase.ScanScheduler,
	lifecycle *usecase.Lifecycle,
	patterns *usecase.PatternLibrary,
	weights *usecase.ReliabilityBook,
	book *usecase.PriceBook,
	audit domrepo.AuditStore,
	symbol string,
) *EngineHandler {
	return &EngineHandler{
		logger:    logger,
		scheduler: scheduler,
		lifecycle: lifecycle,
		patterns:  patterns,
		weights:   weights,
		book:      book,
		audit:     audit,
		symbol:    symbol,
	}
}

func (h *EngineHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/signal", h.Signal)
	g.GET("/signals", h.Signals)
	g.GET("/position", h.Position)
	g.POST("/position/close", h.ClosePosition)
	g.GET("/patterns", h.Patterns)
	g.POST("/patterns/:id/promote", h.PromotePattern)
	g.GET("/reliability", h.Reliability)
	g.GET("/outcomes", h.Outcomes)
}

// Signal returns the most recent aggregated signal.
func (h *EngineHandler) Signal(c echo.Context) error {
	sig, ok := h.scheduler.Latest()
	if !ok {
		return xhttp.NotFoundResponse(c, "no signal yet")
	}
	return xhttp.SuccessResponse(c, sig)
}

// Signals returns the recent signal history, newest last.
func (h *EngineHandler) Signals(c echo.Context) error {
	req := &models.SignalHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.scheduler.History(req.N))
}

type positionResponse struct {
	Current    *models.Position `json:"current,omitempty"`
	LastClosed *models.Position `json:"last_closed,omitempty"`
}

// Position returns the active position, plus the most recently closed one.
func (h *EngineHandler) Position(c echo.Context) error {
	var resp positionResponse
	if pos, ok := h.lifecycle.Current(); ok {
		resp.Current = pos
	}
	if pos, ok := h.lifecycle.LastClosed(); ok {
		resp.LastClosed = pos
	}
	return xhttp.SuccessResponse(c, resp)
}

// ClosePosition closes the active position at the latest known price.
func (h *EngineHandler) ClosePosition(c echo.Context) error {
	req := &models.ClosePositionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	snap, ok := h.book.Latest()
	if !ok {
		return xhttp.NotFoundResponse(c, "no market price available")
	}
	pos, err := h.lifecycle.CloseManual(snap.Price, time.Now().UTC())
	if err != nil {
		return xhttp.NotFoundResponse(c, err.Error())
	}
	h.logger.Info("position closed manually",
		xlogger.String("position_id", pos.ID),
		xlogger.String("note", req.Note))
	return xhttp.SuccessResponse(c, pos)
}

type patternResponse struct {
	models.Pattern
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`
}

// Patterns returns the full pattern library with live statistics.
func (h *EngineHandler) Patterns(c echo.Context) error {
	snap := h.patterns.Snapshot()
	out := make([]patternResponse, 0, len(snap))
	for _, p := range snap {
		out = append(out, patternResponse{
			Pattern:      p,
			WinRate:      p.WinRate(),
			ProfitFactor: p.ProfitFactor(),
		})
	}
	return xhttp.SuccessResponse(c, out)
}

// PromotePattern activates a candidate pattern.
func (h *EngineHandler) PromotePattern(c echo.Context) error {
	req := &models.PromotePatternRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.patterns.Promote(req.ID); err != nil {
		return xhttp.NotFoundResponse(c, err.Error())
	}
	h.logger.Info("pattern promoted", xlogger.String("pattern_id", req.ID))
	return xhttp.SuccessResponse(c, map[string]string{"id": req.ID, "status": string(models.PatternActive)})
}

// Reliability returns the adaptive provider trust scores.
func (h *EngineHandler) Reliability(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.weights.Snapshot())
}

// Outcomes returns recently archived trade outcomes from the audit store.
func (h *EngineHandler) Outcomes(c echo.Context) error {
	if h.audit == nil {
		return xhttp.NotFoundResponse(c, "audit store not configured")
	}
	req := &models.SignalHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	now := time.Now().UTC()
	to := xhttp.ParseTimeDefault(c.QueryParam("to"), now)
	from := xhttp.ParseTimeDefault(c.QueryParam("from"), to.AddDate(0, 0, -30))
	outs, err := h.audit.QueryOutcomes(c.Request().Context(), h.symbol, from, to, req.N)
	if err != nil {
		h.logger.Error("outcomes query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, outs)
}
