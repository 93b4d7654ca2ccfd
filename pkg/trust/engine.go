// Package trust computes and caches the 0-100 reputation score per member.
package trust

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	appctx "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/redis"
	"github.com/Ramsey-B/clover/pkg/repositories"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const (
	// DefaultStaleness is how old a cached score may be before a read
	// recomputes it synchronously
	DefaultStaleness = 15 * time.Minute

	// DefaultLockTTL bounds how long a recompute may hold the per-member lock
	DefaultLockTTL = 30 * time.Second

	lockKeyPrefix = "trust:"
)

// Weights are the score formula coefficients. They are configuration, not
// business law; retuning them must preserve monotonicity in review and
// transaction counts.
type Weights struct {
	ReviewAverage       float64
	ReviewCount         float64
	ReviewCountCap      int
	TransactionCount    float64
	TransactionCountCap int
	CrossTenantBonus    float64
}

// DefaultWeights returns the default score coefficients.
func DefaultWeights() Weights {
	return Weights{
		ReviewAverage:       40,
		ReviewCount:         0.4,
		ReviewCountCap:      25,
		TransactionCount:    0.3,
		TransactionCountCap: 50,
		CrossTenantBonus:    10,
	}
}

// Config tunes the trust engine.
type Config struct {
	Weights   Weights
	Staleness time.Duration
	LockTTL   time.Duration
}

// Engine is the trust score service
type Engine struct {
	scores       *repositories.TrustScoreRepository
	reviews      *repositories.ReviewRepository
	transactions *repositories.TransactionRepository
	locker       *redis.Locker
	emitter      *events.Emitter
	cfg          Config
	logger       ectologger.Logger
	now          func() time.Time
}

// NewEngine creates a new trust score engine
func NewEngine(
	scores *repositories.TrustScoreRepository,
	reviews *repositories.ReviewRepository,
	transactions *repositories.TransactionRepository,
	locker *redis.Locker,
	emitter *events.Emitter,
	cfg Config,
	logger ectologger.Logger,
) *Engine {
	if cfg.Staleness <= 0 {
		cfg.Staleness = DefaultStaleness
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultLockTTL
	}
	zero := Weights{}
	if cfg.Weights == zero {
		cfg.Weights = DefaultWeights()
	}
	return &Engine{
		scores:       scores,
		reviews:      reviews,
		transactions: transactions,
		locker:       locker,
		emitter:      emitter,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// Compute applies the weights to the raw inputs and clamps to [0,100].
func Compute(w Weights, reviewAverage float64, reviewCount, transactionCount int, crossTenant bool) int {
	raw := w.ReviewAverage * (reviewAverage / 5)
	raw += w.ReviewCount * math.Min(float64(reviewCount), float64(w.ReviewCountCap))
	raw += w.TransactionCount * math.Min(float64(transactionCount), float64(w.TransactionCountCap))
	if crossTenant {
		raw += w.CrossTenantBonus
	}

	score := int(math.Round(raw))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Score returns the member's trust score. The cached row is served unless it
// is older than the staleness bound, in which case the score is recomputed
// synchronously.
func (e *Engine) Score(ctx context.Context, memberID uuid.UUID) (*models.TrustScore, error) {
	ctx, span := tracing.StartSpan(ctx, "trust.Engine.Score")
	defer span.End()

	cached, err := e.scores.Get(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if cached != nil && e.now().Sub(cached.CachedAt) <= e.cfg.Staleness {
		return cached, nil
	}

	return e.Recompute(ctx, memberID, "read")
}

// Recompute gathers the member's review and transaction signals, applies the
// weights, and replaces the cached row. A per-member lock prevents duplicate
// concurrent recomputation; a caller losing the lock race serves whatever the
// winner wrote.
func (e *Engine) Recompute(ctx context.Context, memberID uuid.UUID, trigger string) (*models.TrustScore, error) {
	ctx, span := tracing.StartSpan(ctx, "trust.Engine.Recompute")
	defer span.End()

	start := time.Now()

	var score *models.TrustScore
	err := e.locker.WithLock(ctx, lockKeyPrefix+memberID.String(), e.cfg.LockTTL, func() error {
		var err error
		score, err = e.recomputeLocked(ctx, memberID)
		return err
	})
	if errors.Is(err, redis.ErrLockNotAcquired) {
		// Another recompute is in flight; its result is as fresh as ours
		// would have been.
		cached, getErr := e.scores.Get(ctx, memberID)
		if getErr == nil && cached != nil {
			return cached, nil
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	metrics.RecordTrustRecompute(trigger, time.Since(start).Seconds())

	if e.emitter != nil {
		tenantID, _ := uuid.Parse(appctx.GetTenantID(ctx))
		if emitErr := e.emitter.EmitTrustRecomputed(ctx, tenantID, score); emitErr != nil {
			e.logger.WithContext(ctx).WithError(emitErr).Warn("trust score recomputed but event emission failed")
		}
	}

	return score, nil
}

func (e *Engine) recomputeLocked(ctx context.Context, memberID uuid.UUID) (*models.TrustScore, error) {
	stats, err := e.reviews.StatsFor(ctx, memberID)
	if err != nil {
		return nil, err
	}

	txTotal, txCrossTenant, err := e.transactions.CountCompletedFor(ctx, memberID)
	if err != nil {
		return nil, err
	}

	crossTenantReview, err := e.reviews.HasCrossTenant(ctx, memberID)
	if err != nil {
		return nil, err
	}

	crossTenant := crossTenantReview || txCrossTenant > 0
	value := Compute(e.cfg.Weights, stats.Average, stats.Total, txTotal, crossTenant)

	score := &models.TrustScore{
		MemberID:         memberID,
		Score:            value,
		Level:            models.TrustLevelForScore(value),
		ReviewAverage:    stats.Average,
		ReviewCount:      stats.Total,
		TransactionCount: txTotal,
		CrossTenant:      crossTenant,
	}

	if err := e.scores.Upsert(ctx, score); err != nil {
		return nil, err
	}

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"member_id": memberID,
		"score":     value,
		"level":     score.Level,
	}).Debug("trust score recomputed")

	return score, nil
}
