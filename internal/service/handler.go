package service

import (
	"errors"
	"net/http"

	"github.com/aevon-lab/aggcache/internal/aggregation"
	httperr "github.com/aevon-lab/aggcache/internal/core/errors"
	"github.com/aevon-lab/aggcache/internal/flags"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the aggregation and flag API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/aggregations/:user_id/:type", s.HandleGetAggregation)
	r.POST("/v1/aggregations/:user_id/:type/refresh", s.HandleRefreshAggregation)
	r.DELETE("/v1/aggregations/:user_id/:type", s.HandleClearAggregation)

	r.GET("/v1/flags", s.HandleListFlags)
	r.PUT("/v1/flags/:name", s.HandleSetFlag)
	r.DELETE("/v1/flags/overrides", s.HandleClearFlagOverrides)
}

// HandleGetAggregation handles GET /v1/aggregations/:user_id/:type
// Query parameters: timeframe, product, topic (repeated), channel (repeated),
// refresh, no_fallback
func (s *Service) HandleGetAggregation(c *gin.Context) {
	req, ok := s.bindRequest(c)
	if !ok {
		return
	}

	env, err := s.GetAggregation(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "Failed to get aggregation")
		return
	}

	c.JSON(http.StatusOK, newAggregationResponse(req, env))
}

// HandleRefreshAggregation handles POST /v1/aggregations/:user_id/:type/refresh
func (s *Service) HandleRefreshAggregation(c *gin.Context) {
	req, ok := s.bindRequest(c)
	if !ok {
		return
	}

	env, err := s.RefreshAggregation(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "Failed to refresh aggregation")
		return
	}

	c.JSON(http.StatusOK, newAggregationResponse(req, env))
}

// HandleClearAggregation handles DELETE /v1/aggregations/:user_id/:type
func (s *Service) HandleClearAggregation(c *gin.Context) {
	req, ok := s.bindRequest(c)
	if !ok {
		return
	}

	if err := s.ClearAggregation(c.Request.Context(), req); err != nil {
		writeError(c, err, "Failed to clear aggregation")
		return
	}

	c.Status(http.StatusNoContent)
}

// HandleListFlags handles GET /v1/flags
func (s *Service) HandleListFlags(c *gin.Context) {
	c.JSON(http.StatusOK, FlagsResponse{Flags: s.flags.ListAll()})
}

// HandleSetFlag handles PUT /v1/flags/:name with body {"enabled": bool}
func (s *Service) HandleSetFlag(c *gin.Context) {
	flag := flags.Flag(c.Param("name"))
	if !s.flags.Known(flag) {
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpUnknownFlagError,
			Message:   "Unknown feature flag",
			Details:   string(flag),
		})
		return
	}

	var body FlagUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidRequestError,
			Message:   "Invalid request body",
			Details:   err.Error(),
		})
		return
	}

	s.flags.SetRuntimeOverride(flag, *body.Enabled)
	c.JSON(http.StatusOK, s.flags.State(flag))
}

// HandleClearFlagOverrides handles DELETE /v1/flags/overrides
func (s *Service) HandleClearFlagOverrides(c *gin.Context) {
	s.flags.ClearRuntimeOverrides()
	c.Status(http.StatusNoContent)
}

func (s *Service) bindRequest(c *gin.Context) (Request, bool) {
	var uri struct {
		UserID string `uri:"user_id" binding:"required"`
		Type   string `uri:"type" binding:"required"`
	}
	var query AggregationQuery

	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidRequestError,
			Message:   "Invalid path parameters",
			Details:   err.Error(),
		})
		return Request{}, false
	}

	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidRequestError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return Request{}, false
	}

	req := Request{
		UserID:       uri.UserID,
		Type:         uri.Type,
		Filters:      query.filters(),
		ForceRefresh: query.Refresh,
	}
	if !query.NoFallback {
		req.Fallback = s.DirectFallback()
	}
	return req, true
}

func writeError(c *gin.Context, err error, message string) {
	status := http.StatusInternalServerError
	errorType := httperr.HttpInternalError

	switch {
	case errors.Is(err, ErrInvalidRequest):
		status, errorType = http.StatusBadRequest, httperr.HttpInvalidRequestError
	case errors.Is(err, aggregation.ErrUnregisteredType):
		status, errorType = http.StatusBadRequest, httperr.HttpUnknownAggregationError
	case errors.Is(err, aggregation.ErrValidation):
		status, errorType = http.StatusUnprocessableEntity, httperr.HttpValidationError
	case errors.Is(err, ErrCacheDisabled):
		status, errorType = http.StatusServiceUnavailable, httperr.HttpCacheDisabledError
	}

	c.JSON(status, httperr.ErrorResponse{
		ErrorType: errorType,
		Message:   message,
		Details:   err.Error(),
	})
}
