package salary

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"crewdesk/internal/platform/querier"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewStore(mock, querier.NewTxManager(mock)), mock
}

func TestStoreGetPeriod(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)

	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM salary_periods")).
		WithArgs("p1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "start_date", "end_date", "is_active", "created_at"}).
			AddRow("p1", "March", start, end, true, start))

	p, err := store.GetPeriod(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetPeriod returned error: %v", err)
	}
	if p.Name != "March" || !p.IsActive || !p.EndDate.Equal(end) {
		t.Fatalf("unexpected period %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStoreGetPeriodNotFound(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM salary_periods")).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	if _, err := store.GetPeriod(context.Background(), "missing"); !errors.Is(err, ErrPeriodNotFound) {
		t.Fatalf("expected ErrPeriodNotFound, got %v", err)
	}
}

func TestStoreActivatePeriod(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	mock.ExpectExec(regexp.QuoteMeta("UPDATE salary_periods SET is_active = true")).
		WithArgs("p2").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE salary_periods SET is_active = false")).
		WithArgs("p2").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	if err := store.ActivatePeriod(context.Background(), "p2"); err != nil {
		t.Fatalf("ActivatePeriod returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStoreActivateMissingPeriodRollsBack(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	mock.ExpectExec(regexp.QuoteMeta("UPDATE salary_periods SET is_active = true")).
		WithArgs("nope").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	if err := store.ActivatePeriod(context.Background(), "nope"); !errors.Is(err, ErrPeriodNotFound) {
		t.Fatalf("expected ErrPeriodNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStoreDeleteCalculation(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM salary_calculations")).
		WithArgs("c1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM salary_calculations")).
		WithArgs("c1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := store.DeleteCalculation(context.Background(), "c1"); err != nil {
		t.Fatalf("DeleteCalculation returned error: %v", err)
	}
	if err := store.DeleteCalculation(context.Background(), "c1"); !errors.Is(err, ErrCalculationNotFound) {
		t.Fatalf("expected ErrCalculationNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStoreAppendNothing(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)
	if err := store.AppendCalculations(context.Background(), nil); err != nil {
		t.Fatalf("AppendCalculations returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected database calls: %v", err)
	}
}
