package handlers

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/registry"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// PartnershipHandler handles partnership registry API endpoints
type PartnershipHandler struct {
	registry *registry.Registry
	logger   ectologger.Logger
}

// NewPartnershipHandler creates a new partnership handler
func NewPartnershipHandler(reg *registry.Registry, logger ectologger.Logger) *PartnershipHandler {
	return &PartnershipHandler{
		registry: reg,
		logger:   logger,
	}
}

// Register registers partnership routes
func (h *PartnershipHandler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/partners", h.ListPartners)
	g.PATCH("/:partner_id/features", h.UpdateFeatures)
}

// List returns every partnership direction the caller's tenant owns
func (h *PartnershipHandler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "PartnershipHandler.List")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	tenantID, err := GetTenantID(c)
	if err != nil {
		return err
	}

	partnerships, err := h.registry.ListPartnerships(ctx, tenantID)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to list partnerships")
		return err
	}

	return SuccessResponse(c, partnerships)
}

// ListPartners returns the partners eligible to serve a federated query for
// the given resource
func (h *PartnershipHandler) ListPartners(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "PartnershipHandler.ListPartners")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	tenantID, err := GetTenantID(c)
	if err != nil {
		return err
	}

	resource := models.ResourceType(c.QueryParam("resource"))
	if resource == "" {
		resource = models.ResourceMember
	}
	if !resource.Valid() {
		return BadRequest("unknown resource type")
	}

	partners, err := h.registry.EligiblePartners(ctx, tenantID, resource.Feature())
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to list eligible partners")
		return err
	}

	return SuccessResponse(c, partners)
}

// UpdateFeatures updates what the caller's tenant shares with one partner
func (h *PartnershipHandler) UpdateFeatures(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "PartnershipHandler.UpdateFeatures")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	tenantID, err := GetTenantID(c)
	if err != nil {
		return err
	}

	partnerID, err := ParseUUID(c, "partner_id")
	if err != nil {
		return err
	}

	var update registry.FeatureUpdate
	if err := c.Bind(&update); err != nil {
		return BadRequest("invalid request body")
	}

	partnership, err := h.registry.UpdateFeatures(ctx, tenantID, partnerID, &update)
	if err != nil {
		return err
	}

	return SuccessResponse(c, partnership)
}
