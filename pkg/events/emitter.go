// Package events handles event emission for federation lifecycle changes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Publisher is the producer surface the emitter needs.
type Publisher interface {
	PublishFederationEvent(ctx context.Context, event *kafka.FederationEvent) error
}

// Emitter handles event emission for Clover
type Emitter struct {
	producer Publisher
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitReviewCreated emits a review created event
func (e *Emitter) EmitReviewCreated(ctx context.Context, tenantID uuid.UUID, review *models.Review) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitReviewCreated")
	defer span.End()

	data := map[string]any{
		"schema_version":  SchemaVersion,
		"review_id":       review.ID,
		"transaction_id":  review.TransactionID,
		"reviewer_id":     review.ReviewerID,
		"reviewee_id":     review.RevieweeID,
		"rating":          review.Rating,
		"is_cross_tenant": review.IsCrossTenant,
	}
	dataJSON, _ := json.Marshal(data)

	event := &kafka.FederationEvent{
		EventType: "review.created",
		TenantID:  tenantID.String(),
		SubjectID: review.RevieweeID.String(),
		Data:      dataJSON,
	}

	if err := e.producer.PublishFederationEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit review.created event")
		return err
	}

	return nil
}

// EmitTrustRecomputed emits a trust recomputed event
func (e *Emitter) EmitTrustRecomputed(ctx context.Context, tenantID uuid.UUID, score *models.TrustScore) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitTrustRecomputed")
	defer span.End()

	data := map[string]any{
		"schema_version":    SchemaVersion,
		"member_id":         score.MemberID,
		"score":             score.Score,
		"level":             score.Level,
		"review_count":      score.ReviewCount,
		"transaction_count": score.TransactionCount,
	}
	dataJSON, _ := json.Marshal(data)

	event := &kafka.FederationEvent{
		EventType: "trust.recomputed",
		TenantID:  tenantID.String(),
		SubjectID: score.MemberID.String(),
		Data:      dataJSON,
	}

	if err := e.producer.PublishFederationEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit trust.recomputed event")
		return err
	}

	return nil
}

// EmitPartnershipUpdated emits a partnership updated event
func (e *Emitter) EmitPartnershipUpdated(ctx context.Context, partnership *models.Partnership) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitPartnershipUpdated")
	defer span.End()

	data := map[string]any{
		"schema_version":    SchemaVersion,
		"partnership_id":    partnership.ID,
		"partner_tenant_id": partnership.PartnerTenantID,
		"status":            partnership.Status,
		"features": map[models.Feature]bool{
			models.FeatureMembers:      partnership.MembersEnabled,
			models.FeatureListings:     partnership.ListingsEnabled,
			models.FeatureEvents:       partnership.EventsEnabled,
			models.FeatureGroups:       partnership.GroupsEnabled,
			models.FeatureMessaging:    partnership.MessagingEnabled,
			models.FeatureTransactions: partnership.TransactionsEnabled,
		},
	}
	dataJSON, _ := json.Marshal(data)

	event := &kafka.FederationEvent{
		EventType: "partnership.updated",
		TenantID:  partnership.TenantID.String(),
		SubjectID: partnership.PartnerTenantID.String(),
		Data:      dataJSON,
	}

	if err := e.producer.PublishFederationEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit partnership.updated event")
		return err
	}

	return nil
}
