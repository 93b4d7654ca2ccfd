package handlers

import (
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/activity"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// ActivityHandler handles activity feed API endpoints
type ActivityHandler struct {
	aggregator *activity.Aggregator
	logger     ectologger.Logger
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(aggregator *activity.Aggregator, logger ectologger.Logger) *ActivityHandler {
	return &ActivityHandler{
		aggregator: aggregator,
		logger:     logger,
	}
}

// RecordActivityRequest represents the activity ingest request body.
// Partner tenant services push notices here as they happen.
type RecordActivityRequest struct {
	OwnerUserID string         `json:"owner_user_id" validate:"required"`
	Type        string         `json:"type" validate:"required"`
	OccurredAt  *time.Time     `json:"occurred_at,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
}

// Register registers activity routes
func (h *ActivityHandler) Register(g *echo.Group) {
	g.GET("", h.Feed)
	g.POST("", h.Record)
	g.PATCH("/:id/read", h.MarkRead)
}

// Feed returns the caller's merged activity feed with stats
func (h *ActivityHandler) Feed(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ActivityHandler.Feed")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	filter := activity.FeedFilter{}
	if typesParam := c.QueryParams()["type"]; len(typesParam) > 0 {
		for _, t := range typesParam {
			filter.Types = append(filter.Types, models.ActivityType(t))
		}
	}

	feed, err := h.aggregator.Feed(ctx, userID, filter)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to build activity feed")
		return err
	}

	return SuccessResponse(c, feed)
}

// Record ingests one activity notice pushed by a tenant service
func (h *ActivityHandler) Record(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ActivityHandler.Record")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	tenantID, err := GetTenantID(c)
	if err != nil {
		return err
	}

	var req RecordActivityRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest("invalid request body")
	}

	ownerID, err := ParseBodyUUID(req.OwnerUserID, "owner_user_id")
	if err != nil {
		return err
	}

	entry := &models.ActivityEntry{
		OwnerUserID: ownerID,
		TenantID:    tenantID,
		Type:        models.ActivityType(req.Type),
	}
	if req.OccurredAt != nil {
		entry.OccurredAt = *req.OccurredAt
	}
	entry.Payload.Data = req.Payload

	if err := h.aggregator.Record(ctx, entry); err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to record activity entry")
		return err
	}

	return CreatedResponse(c, entry)
}

// MarkRead marks one of the caller's feed entries as read
func (h *ActivityHandler) MarkRead(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ActivityHandler.MarkRead")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	entryID, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	if err := h.aggregator.MarkRead(ctx, userID, entryID); err != nil {
		return err
	}

	return NoContentResponse(c)
}
