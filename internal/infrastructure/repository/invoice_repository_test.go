package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

const nextSequenceQuery = `SELECT COALESCE\(MAX\(CAST\(SPLIT_PART\(invoice_number, '-', 3\) AS INTEGER\)\), 0\) FROM "invoices" WHERE user_id = \$1 AND invoice_number LIKE \$2`

func TestNextSequence(t *testing.T) {
	userID := uuid.New()

	t.Run("first invoice of the year", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()

		mock.ExpectQuery(nextSequenceQuery).
			WithArgs(userID.String(), "INV-2026-%").
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))

		repo := NewInvoiceRepository(db)
		seq, err := repo.NextSequence(context.Background(), userID, 2026)
		require.NoError(t, err)
		assert.Equal(t, 1, seq)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("advances past the max", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()

		mock.ExpectQuery(nextSequenceQuery).
			WithArgs(userID.String(), "INV-2026-%").
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(41))

		repo := NewInvoiceRepository(db)
		seq, err := repo.NextSequence(context.Background(), userID, 2026)
		require.NoError(t, err)
		assert.Equal(t, 42, seq)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	// the sequence segment widens past four digits, so it must be read by
	// splitting on the dashes rather than as a fixed-width suffix
	t.Run("five-digit sequence", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()

		mock.ExpectQuery(nextSequenceQuery).
			WithArgs(userID.String(), "INV-2026-%").
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(10000))

		repo := NewInvoiceRepository(db)
		seq, err := repo.NextSequence(context.Background(), userID, 2026)
		require.NoError(t, err)
		assert.Equal(t, 10001, seq)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
