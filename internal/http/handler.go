package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fleet-analytics/internal/ceiba"
	"fleet-analytics/internal/http/middleware"
	"fleet-analytics/internal/model"
	"fleet-analytics/internal/service"
	"fleet-analytics/internal/session"
	"fleet-analytics/internal/topology"
)

const defaultWindowDays = 7

type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
}

type TokenIssuer interface {
	Issue(sessionID uuid.UUID, username string) (string, error)
}

type Handler struct {
	analytics *service.AnalyticsService
	topology  service.Topology
	backend   Authenticator
	sessions  *session.Manager
	tokens    TokenIssuer
	log       zerolog.Logger
}

func NewHandler(analytics *service.AnalyticsService, topology service.Topology, backend Authenticator, sessions *session.Manager, tokens TokenIssuer, log zerolog.Logger) *Handler {
	return &Handler{
		analytics: analytics,
		topology:  topology,
		backend:   backend,
		sessions:  sessions,
		tokens:    tokens,
		log:       log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	r.POST("/auth/login", h.login)

	protected := r.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/auth/logout", h.logout)

	protected.GET("/fleet/groups", h.listGroups)
	protected.GET("/fleet/groups/default", h.defaultGroup)
	protected.GET("/fleet/groups/:id/labels", h.labelMaps)
	protected.GET("/fleet/devices", h.listDevices)

	protected.GET("/analytics/passengers/daily", h.passengerDaily)
	protected.GET("/analytics/mileage/daily", h.mileageDaily)
	protected.GET("/analytics/passengers/matrix", h.unitMatrix)
	protected.GET("/analytics/history", h.history)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION", "username and password are required"))
		return
	}

	key, err := h.backend.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.handleError(c, err)
		return
	}

	sess := h.sessions.Create(req.Username, key)
	token, err := h.tokens.Issue(sess.ID, sess.Username)
	if err != nil {
		h.sessions.Destroy(sess.ID)
		h.log.Error().Err(err).Msg("failed to issue token")
		c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL", "internal error"))
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"token": token, "username": sess.Username}))
}

func (h *Handler) logout(c *gin.Context) {
	sess, ok := middleware.MustSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("NOT_AUTHENTICATED", "missing session"))
		return
	}

	h.sessions.Destroy(sess.ID)
	c.JSON(http.StatusOK, successResponse(gin.H{"logged_out": true}))
}

func (h *Handler) listGroups(c *gin.Context) {
	sess, ok := middleware.MustSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("NOT_AUTHENTICATED", "missing session"))
		return
	}

	groups, err := h.topology.ListGroups(c.Request.Context(), sess)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if groups == nil {
		groups = []model.Group{}
	}

	c.JSON(http.StatusOK, successResponse(groups))
}

func (h *Handler) defaultGroup(c *gin.Context) {
	sess, ok := middleware.MustSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("NOT_AUTHENTICATED", "missing session"))
		return
	}

	group, err := h.topology.DefaultGroup(c.Request.Context(), sess)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(group))
}

func (h *Handler) listDevices(c *gin.Context) {
	sess, ok := middleware.MustSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("NOT_AUTHENTICATED", "missing session"))
		return
	}

	devices, err := h.topology.ListDevices(c.Request.Context(), sess, strings.TrimSpace(c.Query("group_id")))
	if err != nil {
		h.handleError(c, err)
		return
	}
	if devices == nil {
		devices = []model.Device{}
	}

	c.JSON(http.StatusOK, successResponse(devices))
}

func (h *Handler) labelMaps(c *gin.Context) {
	sess, ok := middleware.MustSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("NOT_AUTHENTICATED", "missing session"))
		return
	}

	groupID := strings.TrimSpace(c.Param("id"))
	if groupID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION", "missing group id"))
		return
	}

	labels, err := h.topology.LabelMaps(c.Request.Context(), sess, groupID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(labels))
}

func (h *Handler) passengerDaily(c *gin.Context) {
	sess, ok := middleware.MustSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("NOT_AUTHENTICATED", "missing session"))
		return
	}

	window, err := parseWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION", err.Error()))
		return
	}

	report, err := h.analytics.PassengerDaily(c.Request.Context(), sess, strings.TrimSpace(c.Query("group_id")), window)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(report))
}

func (h *Handler) mileageDaily(c *gin.Context) {
	sess, ok := middleware.MustSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("NOT_AUTHENTICATED", "missing session"))
		return
	}

	window, err := parseWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION", err.Error()))
		return
	}

	report, err := h.analytics.MileageDaily(c.Request.Context(), sess, strings.TrimSpace(c.Query("group_id")), window)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(report))
}

func (h *Handler) unitMatrix(c *gin.Context) {
	sess, ok := middleware.MustSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("NOT_AUTHENTICATED", "missing session"))
		return
	}

	window, err := parseWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION", err.Error()))
		return
	}

	units := c.QueryArray("terid")
	report, err := h.analytics.UnitMatrix(c.Request.Context(), sess, strings.TrimSpace(c.Query("group_id")), units, window)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(report))
}

func (h *Handler) history(c *gin.Context) {
	sess, ok := middleware.MustSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("NOT_AUTHENTICATED", "missing session"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	snapshots, err := h.analytics.History(c.Request.Context(), sess, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if snapshots == nil {
		snapshots = []model.ReportSnapshot{}
	}

	c.JSON(http.StatusOK, successResponse(snapshots))
}

// parseWindow reads from/to query dates, defaulting to the last seven days.
// Ordering is checked later by the service so that start > end surfaces as
// a validation error before any backend fetch.
func parseWindow(c *gin.Context) (model.DateRange, error) {
	fromStr := strings.TrimSpace(c.Query("from"))
	toStr := strings.TrimSpace(c.Query("to"))

	if fromStr == "" && toStr == "" {
		today := model.Day(time.Now())
		return model.DateRange{Start: today.AddDate(0, 0, -(defaultWindowDays - 1)), End: today}, nil
	}

	window, err := model.ParseDateRange(fromStr, toStr)
	if err != nil {
		return model.DateRange{}, errors.New("dates must use YYYY-MM-DD")
	}
	return window, nil
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var backendErr *ceiba.BackendError

	switch {
	case errors.Is(err, service.ErrMissingGroup),
		errors.Is(err, service.ErrInvalidRange),
		errors.Is(err, service.ErrRangeTooWide),
		errors.Is(err, service.ErrUnknownUnit):
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION", err.Error()))
	case errors.Is(err, ceiba.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, errorResponse("BAD_CREDENTIALS", "invalid username or password"))
	case errors.Is(err, topology.ErrNoUnits):
		c.JSON(http.StatusUnprocessableEntity, errorResponse("EMPTY_TOPOLOGY", "group has no units, pick another group"))
	case errors.Is(err, topology.ErrNoGroups):
		c.JSON(http.StatusUnprocessableEntity, errorResponse("EMPTY_TOPOLOGY", "no groups available for this account"))
	case errors.As(err, &backendErr):
		h.log.Warn().Err(err).Msg("backend request failed")
		c.JSON(http.StatusBadGateway, errorResponse("BACKEND_ERROR", "tracking backend unavailable, retry later"))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL", "internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{"data": data}
}

func errorResponse(code, message string) gin.H {
	return gin.H{"error": message, "code": code}
}
