package handlers

import (
	"strconv"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/federation"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tenantclient"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// SearchHandler handles federated search API endpoints
type SearchHandler struct {
	router *federation.Router
	logger ectologger.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(router *federation.Router, logger ectologger.Logger) *SearchHandler {
	return &SearchHandler{
		router: router,
		logger: logger,
	}
}

// SearchBody represents the federated search request body
type SearchBody struct {
	TenantID *string              `json:"tenant_id,omitempty"`
	Filters  tenantclient.Filters `json:"filters"`
	Offset   int                  `json:"offset"`
	Limit    int                  `json:"limit"`
	Sort     string               `json:"sort,omitempty"`
}

// Register registers federated search routes
func (h *SearchHandler) Register(g *echo.Group) {
	g.POST("/search/:resource", h.Search)
	g.GET("/skills", h.Skills)
}

// Search runs one federated search across all eligible partners
func (h *SearchHandler) Search(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "SearchHandler.Search")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	var body SearchBody
	if err := c.Bind(&body); err != nil {
		return BadRequest("invalid request body")
	}

	req := federation.SearchRequest{
		Resource: models.ResourceType(c.Param("resource")),
		Filters:  body.Filters,
		Offset:   body.Offset,
		Limit:    body.Limit,
		Sort:     federation.SortOrder(body.Sort),
	}

	if body.TenantID != nil && *body.TenantID != "" {
		tenantID, err := uuid.Parse(*body.TenantID)
		if err != nil {
			return BadRequest("invalid tenant_id")
		}
		req.TenantID = &tenantID
	}

	resp, err := h.router.Search(ctx, req)
	if err != nil {
		return err
	}

	return SuccessResponse(c, resp)
}

// Skills returns merged skill autocomplete suggestions from all partners
func (h *SearchHandler) Skills(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "SearchHandler.Skills")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	prefix := c.QueryParam("q")
	if prefix == "" {
		return BadRequest("q query parameter is required")
	}

	limit := 0
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			return BadRequest("invalid limit")
		}
		limit = parsed
	}

	resp, err := h.router.SearchSkills(ctx, prefix, limit)
	if err != nil {
		return err
	}

	return SuccessResponse(c, resp)
}
