// Package activity merges per-user event streams into one ordered feed with
// read state and summary statistics.
package activity

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/repositories"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// DefaultFeedLimit is the feed page size used when the caller supplies none
const DefaultFeedLimit = 50

// FeedFilter narrows the feed to specific entry types.
type FeedFilter struct {
	Types []models.ActivityType
	Limit int
}

// FeedEntry is one feed row annotated for display.
type FeedEntry struct {
	models.ActivityEntry
	RelativeTime string `json:"relative_time"`
}

// FeedStats is computed in the same pass as the merge.
type FeedStats struct {
	UnreadCount   int                         `json:"unread_count"`
	TotalByType   map[models.ActivityType]int `json:"total_by_type"`
	HoursSent     float64                     `json:"hours_sent"`
	HoursReceived float64                     `json:"hours_received"`
}

// Feed is the merged activity feed. Partial is set when a source was
// unavailable and its entries are missing rather than the call failing.
type Feed struct {
	Entries []FeedEntry `json:"entries"`
	Stats   FeedStats   `json:"stats"`
	Partial bool        `json:"partial"`
}

// Aggregator is the activity feed service
type Aggregator struct {
	entries      *repositories.ActivityRepository
	transactions *repositories.TransactionRepository
	logger       ectologger.Logger
	now          func() time.Time
}

// NewAggregator creates a new activity aggregator
func NewAggregator(
	entries *repositories.ActivityRepository,
	transactions *repositories.TransactionRepository,
	logger ectologger.Logger,
) *Aggregator {
	return &Aggregator{
		entries:      entries,
		transactions: transactions,
		logger:       logger,
		now:          time.Now,
	}
}

// Feed merges the owner's message, transaction and partnership streams into
// one newest-first sequence and computes stats in the same pass. A source
// that fails marks the feed partial instead of failing the call.
func (a *Aggregator) Feed(ctx context.Context, ownerID uuid.UUID, filter FeedFilter) (*Feed, error) {
	ctx, span := tracing.StartSpan(ctx, "activity.Aggregator.Feed")
	defer span.End()

	if filter.Limit <= 0 {
		filter.Limit = DefaultFeedLimit
	}
	for _, t := range filter.Types {
		if !t.Valid() {
			return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown activity type %q", t)
		}
	}

	types := filter.Types
	if len(types) == 0 {
		types = []models.ActivityType{models.ActivityMessage, models.ActivityTransaction, models.ActivityNewPartner}
	}

	feed := &Feed{
		Stats: FeedStats{TotalByType: make(map[models.ActivityType]int)},
	}

	// One query per origin stream so an unavailable source degrades to a
	// partial feed rather than an empty one.
	merged := make([]models.ActivityEntry, 0)
	for _, t := range types {
		entries, err := a.entries.ListByOwner(ctx, ownerID, []models.ActivityType{t}, filter.Limit)
		if err != nil {
			a.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"owner_user_id": ownerID,
				"type":          t,
			}).Warn("activity source unavailable, serving partial feed")
			feed.Partial = true
			continue
		}
		merged = append(merged, entries...)
	}

	sort.Slice(merged, func(i, j int) bool {
		if !merged[i].OccurredAt.Equal(merged[j].OccurredAt) {
			return merged[i].OccurredAt.After(merged[j].OccurredAt)
		}
		return merged[i].ID.String() > merged[j].ID.String()
	})
	if len(merged) > filter.Limit {
		merged = merged[:filter.Limit]
	}

	now := a.now()
	feed.Entries = make([]FeedEntry, 0, len(merged))
	for _, e := range merged {
		feed.Stats.TotalByType[e.Type]++
		feed.Entries = append(feed.Entries, FeedEntry{
			ActivityEntry: e,
			RelativeTime:  RelativeTime(e.OccurredAt, now),
		})
	}

	// Unread spans the whole feed, not just the page served here.
	unread, err := a.entries.CountUnread(ctx, ownerID)
	if err != nil {
		a.logger.WithContext(ctx).WithError(err).Warn("unread count unavailable, serving partial feed")
		feed.Partial = true
	} else {
		feed.Stats.UnreadCount = unread
	}

	if err := a.hourTotals(ctx, ownerID, &feed.Stats); err != nil {
		a.logger.WithContext(ctx).WithError(err).Warn("transaction totals unavailable, serving partial feed")
		feed.Partial = true
	}

	return feed, nil
}

// hourTotals sums hours sent and received across the owner's completed
// transactions.
func (a *Aggregator) hourTotals(ctx context.Context, ownerID uuid.UUID, stats *FeedStats) error {
	txs, err := a.transactions.ListCompletedFor(ctx, ownerID, 0)
	if err != nil {
		return err
	}
	for _, tx := range txs {
		if tx.SenderID == ownerID {
			stats.HoursSent += tx.Hours
		}
		if tx.ReceiverID == ownerID {
			stats.HoursReceived += tx.Hours
		}
	}
	return nil
}

// Record appends an entry to a user's feed. Tenant services push message,
// transaction and partnership notices through this.
func (a *Aggregator) Record(ctx context.Context, entry *models.ActivityEntry) error {
	ctx, span := tracing.StartSpan(ctx, "activity.Aggregator.Record")
	defer span.End()

	if !entry.Type.Valid() {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown activity type %q", entry.Type)
	}
	if entry.OwnerUserID == uuid.Nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "owner_user_id is required")
	}

	return a.entries.Insert(ctx, entry)
}

// MarkRead flips the read flag on one of the owner's entries.
func (a *Aggregator) MarkRead(ctx context.Context, ownerID, entryID uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "activity.Aggregator.MarkRead")
	defer span.End()

	return a.entries.MarkRead(ctx, ownerID, entryID)
}
