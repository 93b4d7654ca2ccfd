package repositories

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const transactionTable = "transactions"

var transactionStruct = database.NewStruct(new(models.Transaction))

// TransactionRepository reads time exchanges recorded by tenant services
type TransactionRepository struct {
	*Repository
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db database.DB, logger ectologger.Logger) *TransactionRepository {
	return &TransactionRepository{
		Repository: NewRepository(db, logger),
	}
}

// GetByID retrieves a transaction by its id.
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	ctx, span := tracing.StartSpan(ctx, "TransactionRepository.GetByID")
	defer span.End()

	sb := transactionStruct.SelectFrom(transactionTable)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var tx models.Transaction
	err := r.DB().GetContext(ctx, &tx, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "transaction %s does not exist", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"transaction_id": id,
		}).Error("failed to get transaction")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get transaction")
	}

	return &tx, nil
}

// CountCompletedFor returns the number of completed transactions the user was
// a party to, plus how many of those crossed tenant boundaries.
func (r *TransactionRepository) CountCompletedFor(ctx context.Context, userID uuid.UUID) (total int, crossTenant int, err error) {
	ctx, span := tracing.StartSpan(ctx, "TransactionRepository.CountCompletedFor")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(
		"COUNT(*) AS total",
		"COUNT(*) FILTER (WHERE sender_tenant_id <> receiver_tenant_id) AS cross_tenant",
	)
	sb.From(transactionTable)
	sb.Where(
		sb.Or(sb.Equal("sender_id", userID), sb.Equal("receiver_id", userID)),
		sb.Equal("status", models.TransactionCompleted),
	)

	query, args := sb.Build()
	var counts struct {
		Total       int `db:"total"`
		CrossTenant int `db:"cross_tenant"`
	}
	err = r.DB().GetContext(ctx, &counts, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"user_id": userID,
		}).Error("failed to count completed transactions")
		return 0, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count completed transactions")
	}

	return counts.Total, counts.CrossTenant, nil
}

// ListCompletedFor retrieves the user's completed transactions, most recent
// first.
func (r *TransactionRepository) ListCompletedFor(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error) {
	ctx, span := tracing.StartSpan(ctx, "TransactionRepository.ListCompletedFor")
	defer span.End()

	sb := transactionStruct.SelectFrom(transactionTable)
	sb.Where(
		sb.Or(sb.Equal("sender_id", userID), sb.Equal("receiver_id", userID)),
		sb.Equal("status", models.TransactionCompleted),
	)
	sb.OrderBy("completed_at DESC", "id DESC")
	if limit > 0 {
		sb.Limit(limit)
	}

	query, args := sb.Build()
	var txs []models.Transaction
	err := r.DB().SelectContext(ctx, &txs, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"user_id": userID,
		}).Error("failed to list completed transactions")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list completed transactions")
	}

	return txs, nil
}
