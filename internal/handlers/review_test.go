package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appctx "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/repositories"
	"github.com/Ramsey-B/clover/pkg/reviews"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

type fakeResult struct{ rows int64 }

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, nil }

// handlerDB holds one completed transaction and accepts any insert.
type handlerDB struct {
	tx models.Transaction
}

func (f *handlerDB) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	if d, ok := dest.(*models.Transaction); ok {
		for _, a := range args {
			if id, ok := a.(uuid.UUID); ok && id == f.tx.ID {
				*d = f.tx
				return nil
			}
		}
	}
	return sql.ErrNoRows
}

func (f *handlerDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return fakeResult{rows: 1}, nil
}

func (f *handlerDB) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	return nil
}

func (f *handlerDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, errors.New("not supported")
}

func (f *handlerDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

func (f *handlerDB) QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	return nil, errors.New("not supported")
}

func (f *handlerDB) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, errors.New("not supported")
}

func (f *handlerDB) PingContext(ctx context.Context) error { return nil }

func (f *handlerDB) Close() error { return nil }

func (f *handlerDB) GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, database.Tx, error) {
	return ctx, nil, errors.New("not supported")
}

func TestSubmitReviewResponseEnvelope(t *testing.T) {
	reviewer := uuid.New()
	completed := time.Now()
	tenantID := uuid.New()
	db := &handlerDB{
		tx: models.Transaction{
			ID:               uuid.New(),
			TenantID:         tenantID,
			SenderID:         reviewer,
			SenderTenantID:   tenantID,
			ReceiverID:       uuid.New(),
			ReceiverTenantID: tenantID,
			Hours:            1,
			Status:           models.TransactionCompleted,
			CompletedAt:      &completed,
		},
	}

	logger := getTestLogger()
	subsystem := reviews.NewSubsystem(
		repositories.NewReviewRepository(db, logger),
		repositories.NewTransactionRepository(db, logger),
		nil,
		"",
		nil,
		logger,
	)
	handler := NewReviewHandler(subsystem, logger)

	body := `{"transaction_id":"` + db.tx.ID.String() + `","rating":5}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(appctx.SetUserID(req.Context(), reviewer.String()))
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	require.NoError(t, handler.Submit(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Success bool           `json:"success"`
		Review  *models.Review `json:"review"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	require.NotNil(t, resp.Review)
	assert.Equal(t, reviewer, resp.Review.ReviewerID)
	assert.Equal(t, 5, resp.Review.Rating)
}
