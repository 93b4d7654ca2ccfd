package handlers

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/reviews"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// ReviewHandler handles review submission API endpoints
type ReviewHandler struct {
	subsystem *reviews.Subsystem
	logger    ectologger.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(subsystem *reviews.Subsystem, logger ectologger.Logger) *ReviewHandler {
	return &ReviewHandler{
		subsystem: subsystem,
		logger:    logger,
	}
}

// Register registers review routes
func (h *ReviewHandler) Register(g *echo.Group) {
	g.POST("", h.Submit)
	g.GET("/eligibility/:transaction_id", h.Eligibility)
}

// Submit creates a review for a completed transaction
func (h *ReviewHandler) Submit(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ReviewHandler.Submit")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	reviewerID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var req reviews.SubmitRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest("invalid request body")
	}

	review, err := h.subsystem.Submit(ctx, reviewerID, req)
	if err != nil {
		return err
	}

	return CreatedResponse(c, map[string]any{
		"success": true,
		"review":  review,
	})
}

// Eligibility reports whether the caller may review the transaction
func (h *ReviewHandler) Eligibility(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ReviewHandler.Eligibility")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	transactionID, err := ParseUUID(c, "transaction_id")
	if err != nil {
		return err
	}

	eligible, err := h.subsystem.EligibleToReview(ctx, userID, transactionID)
	if err != nil {
		return err
	}

	return SuccessResponse(c, map[string]bool{"eligible": eligible})
}
