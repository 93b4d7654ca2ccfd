package handlers

import (
	"strconv"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/reviews"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/trust"
)

const defaultReviewListLimit = 20

// MemberHandler handles member reputation API endpoints
type MemberHandler struct {
	reviews *reviews.Subsystem
	trust   *trust.Engine
	logger  ectologger.Logger
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(reviews *reviews.Subsystem, trust *trust.Engine, logger ectologger.Logger) *MemberHandler {
	return &MemberHandler{
		reviews: reviews,
		trust:   trust,
		logger:  logger,
	}
}

// Register registers member reputation routes
func (h *MemberHandler) Register(g *echo.Group) {
	g.GET("/:id/reviews", h.ListReviews)
	g.GET("/:id/reviews/stats", h.ReviewStats)
	g.GET("/:id/trust", h.TrustScore)
}

// ListReviews returns the most recent reviews received by a member
func (h *MemberHandler) ListReviews(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "MemberHandler.ListReviews")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	memberID, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	limit := defaultReviewListLimit
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			return BadRequest("invalid limit")
		}
		limit = parsed
	}

	list, err := h.reviews.ListFor(ctx, memberID, limit)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to list reviews")
		return err
	}

	return SuccessResponse(c, list)
}

// ReviewStats returns the aggregate rating for a member
func (h *MemberHandler) ReviewStats(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "MemberHandler.ReviewStats")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	memberID, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	stats, err := h.reviews.StatsFor(ctx, memberID)
	if err != nil {
		return err
	}

	return SuccessResponse(c, stats)
}

// TrustScore returns the member's trust score, recomputing if stale
func (h *MemberHandler) TrustScore(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "MemberHandler.TrustScore")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	memberID, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	score, err := h.trust.Score(ctx, memberID)
	if err != nil {
		return err
	}

	return SuccessResponse(c, score)
}
