package api

import (
	"errors"
	"net/http"
	"time"

	models "RSIPulse/internal/domain/models"
	"RSIPulse/internal/engine/tracker"
	icache "RSIPulse/internal/service/cache"
	"RSIPulse/internal/service/metrics"
	"RSIPulse/internal/service/ratelimit"
	"RSIPulse/internal/usecase"
	xhttp "RSIPulse/pkg/http"
	xlogger "RSIPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// TrackerEchoHandler exposes the tracker over HTTP for the dashboard.
type TrackerEchoHandler struct {
	logger    *xlogger.Logger
	tracker   *tracker.Tracker
	watchlist *usecase.Watchlist
	points    *usecase.PointsUseCase
	overview  *usecase.SymbolOverviewUseCase
	cache     *icache.TTLCache
	rl        *ratelimit.Limiter
}

func NewTrackerEchoHandler(
	logger *xlogger.Logger,
	trk *tracker.Tracker,
	watchlist *usecase.Watchlist,
	points *usecase.PointsUseCase,
	overview *usecase.SymbolOverviewUseCase,
) *TrackerEchoHandler {
	metrics.Register()
	return &TrackerEchoHandler{
		logger:    logger,
		tracker:   trk,
		watchlist: watchlist,
		points:    points,
		overview:  overview,
		cache:     icache.NewTTLCache(),
		rl:        ratelimit.New(),
	}
}

func (h *TrackerEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/rsi", h.RSI)
	g.GET("/agreement", h.Agreement)
	g.GET("/overview", h.Overview)
	g.GET("/summary", h.Summary)
	g.GET("/points", h.Points)
	g.GET("/watchlist", h.Watchlist)
	g.POST("/watchlist", h.Watch)
	g.PUT("/watchlist", h.UpdateRule)
	g.DELETE("/watchlist", h.Unwatch)
}

func (h *TrackerEchoHandler) observe(endpoint string, start time.Time) {
	metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// RSI returns the latest RSI value and alert zone of one pair.
func (h *TrackerEchoHandler) RSI(c echo.Context) error {
	defer h.observe("rsi", time.Now())

	req := &models.RSIRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	pair := models.Pair{Symbol: req.Symbol, Timeframe: models.Timeframe(req.TF)}

	point, err := h.tracker.CurrentRSI(pair)
	if err != nil {
		if errors.Is(err, tracker.ErrUnknownPair) {
			return xhttp.NotFoundResponse(c, "pair not tracked: "+pair.String())
		}
		metrics.APIErrors.WithLabelValues("rsi").Inc()
		h.logger.Error("rsi lookup error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	resp := echo.Map{"symbol": req.Symbol, "timeframe": req.TF, "warm": point != nil}
	if point != nil {
		resp["rsi"] = point.Value
		resp["timestamp"] = point.Timestamp
	}
	return xhttp.SuccessResponse(c, resp)
}

// Agreement returns the cross-timeframe agreement score of one symbol.
func (h *TrackerEchoHandler) Agreement(c echo.Context) error {
	defer h.observe("agreement", time.Now())

	req := &models.AgreementRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	score, err := h.tracker.Agreement(req.Symbol)
	if err != nil {
		if errors.Is(err, tracker.ErrUnknownPair) {
			return xhttp.NotFoundResponse(c, "symbol not tracked: "+req.Symbol)
		}
		metrics.APIErrors.WithLabelValues("agreement").Inc()
		h.logger.Error("agreement error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, score)
}

// Overview fans out over every tracked timeframe of a symbol.
func (h *TrackerEchoHandler) Overview(c echo.Context) error {
	defer h.observe("overview", time.Now())

	req := &models.AgreementRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.overview.GetOverview(c.Request().Context(), req.Symbol)
	if err != nil {
		if errors.Is(err, tracker.ErrUnknownPair) {
			return xhttp.NotFoundResponse(c, "symbol not tracked: "+req.Symbol)
		}
		metrics.APIErrors.WithLabelValues("overview").Inc()
		h.logger.Error("overview error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Summary returns the zone distribution of the whole watchlist. The answer
// is cached briefly, the dashboard polls it.
func (h *TrackerEchoHandler) Summary(c echo.Context) error {
	defer h.observe("summary", time.Now())

	if v, ok := h.cache.Get("summary"); ok {
		return xhttp.SuccessResponse(c, v)
	}
	sum := h.tracker.Summary()
	h.cache.Set("summary", sum, 5*time.Second)
	return xhttp.SuccessResponse(c, sum)
}

// Points returns the RSI series of one pair over a time range.
func (h *TrackerEchoHandler) Points(c echo.Context) error {
	defer h.observe("points", time.Now())

	req := &models.PointsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":points", 5, 2) {
		h.logger.Warn("points rate_limited", xlogger.String("remote", c.RealIP()))
		return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate limited"})
	}

	params := usecase.GetPointsParams{
		Symbol:    req.Symbol,
		Timeframe: models.Timeframe(req.TF),
		From:      xhttp.ParseTimeDefault(req.From, time.Now().Add(-24*time.Hour)),
		To:        xhttp.ParseTimeDefault(req.To, time.Now()),
		Limit:     req.Limit,
	}
	res, err := h.points.GetPoints(c.Request().Context(), params)
	if err != nil {
		if errors.Is(err, tracker.ErrUnknownPair) {
			return xhttp.NotFoundResponse(c, "pair not tracked")
		}
		metrics.APIErrors.WithLabelValues("points").Inc()
		h.logger.Error("points error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Watchlist lists tracked pairs.
func (h *TrackerEchoHandler) Watchlist(c echo.Context) error {
	defer h.observe("watchlist", time.Now())
	return xhttp.SuccessResponse(c, h.watchlist.Pairs())
}

// Watch adds a pair to the watchlist.
func (h *TrackerEchoHandler) Watch(c echo.Context) error {
	defer h.observe("watch", time.Now())

	req := &models.WatchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rule, err := ruleFromRequest(req)
	if err != nil {
		return xhttp.BadRequestResponse(c, echo.Map{"error": err.Error()})
	}

	if err := h.watchlist.Add(c.Request().Context(), req.Symbol, req.TF, req.Period, rule); err != nil {
		metrics.APIErrors.WithLabelValues("watch").Inc()
		h.logger.Error("watch error", xlogger.Error(err))
		return xhttp.BadRequestResponse(c, echo.Map{"error": err.Error()})
	}
	return xhttp.CreatedResponse(c, echo.Map{"symbol": req.Symbol, "tf": req.TF})
}

// UpdateRule replaces the alert rule of a tracked pair.
func (h *TrackerEchoHandler) UpdateRule(c echo.Context) error {
	defer h.observe("update_rule", time.Now())

	req := &models.WatchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rule, err := ruleFromRequest(req)
	if err != nil {
		return xhttp.BadRequestResponse(c, echo.Map{"error": err.Error()})
	}

	if err := h.watchlist.UpdateRule(req.Symbol, req.TF, *rule); err != nil {
		if errors.Is(err, tracker.ErrUnknownPair) {
			return xhttp.NotFoundResponse(c, "pair not tracked")
		}
		metrics.APIErrors.WithLabelValues("update_rule").Inc()
		return xhttp.BadRequestResponse(c, echo.Map{"error": err.Error()})
	}
	return xhttp.SuccessResponse(c, echo.Map{"symbol": req.Symbol, "tf": req.TF})
}

// Unwatch removes a pair from the watchlist.
func (h *TrackerEchoHandler) Unwatch(c echo.Context) error {
	defer h.observe("unwatch", time.Now())

	req := &models.UnwatchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.watchlist.Remove(c.Request().Context(), req.Symbol, req.TF); err != nil {
		if errors.Is(err, tracker.ErrUnknownPair) {
			return xhttp.NotFoundResponse(c, "pair not tracked")
		}
		metrics.APIErrors.WithLabelValues("unwatch").Inc()
		return xhttp.BadRequestResponse(c, echo.Map{"error": err.Error()})
	}
	return xhttp.NoContentResponse(c)
}

func ruleFromRequest(req *models.WatchRequest) (*models.AlertRule, error) {
	rule := models.AlertRule{
		Overbought: req.Overbought,
		Oversold:   req.Oversold,
		Hysteresis: req.Hysteresis,
	}
	if req.Debounce != "" {
		d, err := time.ParseDuration(req.Debounce)
		if err != nil {
			return nil, errors.New("invalid debounce duration")
		}
		rule.Debounce = d
	}
	if rule.Overbought <= rule.Oversold {
		return nil, errors.New("overbought threshold must exceed oversold")
	}
	return &rule, nil
}
