package handlers

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/repositories"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/utils"
)

// SettingsHandler handles federation privacy settings API endpoints
type SettingsHandler struct {
	repo   *repositories.SettingsRepository
	logger ectologger.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(repo *repositories.SettingsRepository, logger ectologger.Logger) *SettingsHandler {
	return &SettingsHandler{
		repo:   repo,
		logger: logger,
	}
}

// UpdateSettingsRequest represents the settings update request body
type UpdateSettingsRequest struct {
	OptedIn           bool                `json:"opted_in"`
	PrivacyLevel      models.PrivacyLevel `json:"privacy_level" validate:"required,oneof=discovery social economic"`
	ServiceReach      models.ServiceReach `json:"service_reach" validate:"required,oneof=local_only will_travel remote_ok"`
	ShowLocation      bool                `json:"show_location"`
	ShowSkills        bool                `json:"show_skills"`
	AllowMessaging    bool                `json:"allow_messaging"`
	AllowTransactions bool                `json:"allow_transactions"`
}

// Register registers settings routes
func (h *SettingsHandler) Register(g *echo.Group) {
	g.GET("", h.Get)
	g.PUT("", h.Update)
}

// Get returns the caller's federation settings, opted-out defaults if unset
func (h *SettingsHandler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "SettingsHandler.Get")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	tenantID, err := GetTenantID(c)
	if err != nil {
		return err
	}

	settings, err := h.repo.GetByUserID(ctx, userID, tenantID)
	if err != nil {
		return err
	}

	return SuccessResponse(c, settings)
}

// Update replaces the caller's federation settings
func (h *SettingsHandler) Update(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "SettingsHandler.Update")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	tenantID, err := GetTenantID(c)
	if err != nil {
		return err
	}

	var req UpdateSettingsRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest("invalid request body")
	}
	if _, err := utils.Validate(req); err != nil {
		return BadRequest(err.Error())
	}

	settings := &models.FederationSettings{
		UserID:            userID,
		TenantID:          tenantID,
		OptedIn:           req.OptedIn,
		PrivacyLevel:      req.PrivacyLevel,
		ServiceReach:      req.ServiceReach,
		ShowLocation:      req.ShowLocation,
		ShowSkills:        req.ShowSkills,
		AllowMessaging:    req.AllowMessaging,
		AllowTransactions: req.AllowTransactions,
	}

	if err := h.repo.Upsert(ctx, settings); err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to update federation settings")
		return err
	}

	return SuccessResponse(c, settings)
}
