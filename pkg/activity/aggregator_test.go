package activity

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/repositories"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

type fakeResult struct{ rows int64 }

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, nil }

// feedDB serves the aggregator's queries from memory. Entry queries are one
// per type; the queried type is recovered from the bind args.
type feedDB struct {
	entries []models.ActivityEntry
	txs     []models.Transaction

	failTypes  map[models.ActivityType]bool
	failTxs    bool
	failUnread bool

	inserts      int
	markReadRows int64
}

func (f *feedDB) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	switch d := dest.(type) {
	case *[]models.ActivityEntry:
		queried := queriedTypes(args)
		for _, t := range queried {
			if f.failTypes[t] {
				return errors.New("source unavailable")
			}
		}
		for _, e := range f.entries {
			for _, t := range queried {
				if e.Type == t {
					*d = append(*d, e)
				}
			}
		}
	case *[]models.Transaction:
		if f.failTxs {
			return errors.New("source unavailable")
		}
		*d = append([]models.Transaction(nil), f.txs...)
	}
	return nil
}

func queriedTypes(args []any) []models.ActivityType {
	types := make([]models.ActivityType, 0, len(args))
	for _, a := range args {
		if t, ok := a.(models.ActivityType); ok {
			types = append(types, t)
		}
	}
	return types
}

func (f *feedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if strings.HasPrefix(strings.ToUpper(query), "INSERT") {
		f.inserts++
		return fakeResult{rows: 1}, nil
	}
	return fakeResult{rows: f.markReadRows}, nil
}

func (f *feedDB) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	if d, ok := dest.(*int); ok {
		if f.failUnread {
			return errors.New("source unavailable")
		}
		count := 0
		for _, e := range f.entries {
			if !e.Read {
				count++
			}
		}
		*d = count
		return nil
	}
	return sql.ErrNoRows
}

func (f *feedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, errors.New("not supported")
}

func (f *feedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

func (f *feedDB) QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	return nil, errors.New("not supported")
}

func (f *feedDB) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, errors.New("not supported")
}

func (f *feedDB) PingContext(ctx context.Context) error { return nil }

func (f *feedDB) Close() error { return nil }

func (f *feedDB) GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, database.Tx, error) {
	return ctx, nil, errors.New("not supported")
}

func newTestAggregator(db *feedDB) *Aggregator {
	logger := getTestLogger()
	agg := NewAggregator(
		repositories.NewActivityRepository(db, logger),
		repositories.NewTransactionRepository(db, logger),
		logger,
	)
	agg.now = func() time.Time {
		return time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	}
	return agg
}

func entryAt(owner uuid.UUID, t models.ActivityType, occurred time.Time, read bool) models.ActivityEntry {
	return models.ActivityEntry{
		ID:          uuid.New(),
		OwnerUserID: owner,
		TenantID:    uuid.New(),
		Type:        t,
		OccurredAt:  occurred,
		Read:        read,
	}
}

func TestFeedMergesStreamsNewestFirst(t *testing.T) {
	owner := uuid.New()
	base := time.Date(2026, time.March, 14, 11, 0, 0, 0, time.UTC)

	db := &feedDB{
		entries: []models.ActivityEntry{
			entryAt(owner, models.ActivityMessage, base.Add(-2*time.Hour), true),
			entryAt(owner, models.ActivityTransaction, base, false),
			entryAt(owner, models.ActivityNewPartner, base.Add(-time.Hour), false),
		},
	}
	agg := newTestAggregator(db)

	feed, err := agg.Feed(context.Background(), owner, FeedFilter{})
	require.NoError(t, err)

	require.Len(t, feed.Entries, 3)
	assert.Equal(t, models.ActivityTransaction, feed.Entries[0].Type)
	assert.Equal(t, models.ActivityNewPartner, feed.Entries[1].Type)
	assert.Equal(t, models.ActivityMessage, feed.Entries[2].Type)

	assert.Equal(t, "1h ago", feed.Entries[0].RelativeTime)
	assert.Equal(t, "2h ago", feed.Entries[1].RelativeTime)
	assert.Equal(t, "3h ago", feed.Entries[2].RelativeTime)

	assert.False(t, feed.Partial)
	assert.Equal(t, 2, feed.Stats.UnreadCount)
	assert.Equal(t, 1, feed.Stats.TotalByType[models.ActivityMessage])
	assert.Equal(t, 1, feed.Stats.TotalByType[models.ActivityTransaction])
	assert.Equal(t, 1, feed.Stats.TotalByType[models.ActivityNewPartner])
}

func TestFeedFilterByType(t *testing.T) {
	owner := uuid.New()
	base := time.Now()

	db := &feedDB{
		entries: []models.ActivityEntry{
			entryAt(owner, models.ActivityMessage, base, false),
			entryAt(owner, models.ActivityTransaction, base, false),
		},
	}
	agg := newTestAggregator(db)

	feed, err := agg.Feed(context.Background(), owner, FeedFilter{
		Types: []models.ActivityType{models.ActivityMessage},
	})
	require.NoError(t, err)

	require.Len(t, feed.Entries, 1)
	assert.Equal(t, models.ActivityMessage, feed.Entries[0].Type)
}

func TestFeedRejectsUnknownType(t *testing.T) {
	agg := newTestAggregator(&feedDB{})

	_, err := agg.Feed(context.Background(), uuid.New(), FeedFilter{
		Types: []models.ActivityType{"page_view"},
	})

	require.Error(t, err)
	assert.True(t, httperror.IsHTTPError(err))
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestFeedAppliesLimit(t *testing.T) {
	owner := uuid.New()
	base := time.Now()

	db := &feedDB{}
	for i := 0; i < 5; i++ {
		db.entries = append(db.entries, entryAt(owner, models.ActivityMessage, base.Add(-time.Duration(i)*time.Minute), false))
	}
	agg := newTestAggregator(db)

	feed, err := agg.Feed(context.Background(), owner, FeedFilter{Limit: 2})
	require.NoError(t, err)

	assert.Len(t, feed.Entries, 2)
}

func TestFeedUnreadCountSpansBeyondPage(t *testing.T) {
	owner := uuid.New()
	base := time.Now()

	db := &feedDB{}
	for i := 0; i < 5; i++ {
		db.entries = append(db.entries, entryAt(owner, models.ActivityMessage, base.Add(-time.Duration(i)*time.Minute), false))
	}
	agg := newTestAggregator(db)

	feed, err := agg.Feed(context.Background(), owner, FeedFilter{Limit: 2})
	require.NoError(t, err)

	require.Len(t, feed.Entries, 2)
	assert.Equal(t, 5, feed.Stats.UnreadCount)
}

func TestFeedPartialWhenUnreadCountUnavailable(t *testing.T) {
	owner := uuid.New()

	db := &feedDB{
		entries: []models.ActivityEntry{
			entryAt(owner, models.ActivityMessage, time.Now(), false),
		},
		failUnread: true,
	}
	agg := newTestAggregator(db)

	feed, err := agg.Feed(context.Background(), owner, FeedFilter{})
	require.NoError(t, err)

	assert.True(t, feed.Partial)
	assert.Len(t, feed.Entries, 1)
	assert.Zero(t, feed.Stats.UnreadCount)
}

func TestFeedPartialWhenSourceUnavailable(t *testing.T) {
	owner := uuid.New()

	db := &feedDB{
		entries: []models.ActivityEntry{
			entryAt(owner, models.ActivityTransaction, time.Now(), false),
		},
		failTypes: map[models.ActivityType]bool{models.ActivityMessage: true},
	}
	agg := newTestAggregator(db)

	feed, err := agg.Feed(context.Background(), owner, FeedFilter{})
	require.NoError(t, err)

	assert.True(t, feed.Partial)
	assert.Len(t, feed.Entries, 1)
}

func TestFeedPartialWhenTransactionTotalsUnavailable(t *testing.T) {
	owner := uuid.New()

	db := &feedDB{failTxs: true}
	agg := newTestAggregator(db)

	feed, err := agg.Feed(context.Background(), owner, FeedFilter{})
	require.NoError(t, err)

	assert.True(t, feed.Partial)
}

func TestFeedHourTotals(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()

	db := &feedDB{
		txs: []models.Transaction{
			{ID: uuid.New(), SenderID: owner, ReceiverID: other, Hours: 2.5},
			{ID: uuid.New(), SenderID: other, ReceiverID: owner, Hours: 1},
			{ID: uuid.New(), SenderID: owner, ReceiverID: other, Hours: 0.5},
		},
	}
	agg := newTestAggregator(db)

	feed, err := agg.Feed(context.Background(), owner, FeedFilter{})
	require.NoError(t, err)

	assert.InDelta(t, 3.0, feed.Stats.HoursSent, 1e-9)
	assert.InDelta(t, 1.0, feed.Stats.HoursReceived, 1e-9)
}

func TestRecordValidatesEntry(t *testing.T) {
	db := &feedDB{}
	agg := newTestAggregator(db)
	ctx := context.Background()

	err := agg.Record(ctx, &models.ActivityEntry{
		OwnerUserID: uuid.New(),
		Type:        "page_view",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))

	err = agg.Record(ctx, &models.ActivityEntry{Type: models.ActivityMessage})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))

	assert.Zero(t, db.inserts)

	err = agg.Record(ctx, &models.ActivityEntry{
		OwnerUserID: uuid.New(),
		TenantID:    uuid.New(),
		Type:        models.ActivityMessage,
		OccurredAt:  time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, db.inserts)
}

func TestMarkReadUnknownEntry(t *testing.T) {
	db := &feedDB{markReadRows: 0}
	agg := newTestAggregator(db)

	err := agg.MarkRead(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))

	db.markReadRows = 1
	assert.NoError(t, agg.MarkRead(context.Background(), uuid.New(), uuid.New()))
}
