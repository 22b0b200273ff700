package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Hecoloko/shulgenius-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// These tests pin the SQL shape of the money-critical statements against
// the postgres dialect, which the sqlite-backed service tests cannot see.

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func TestCreateApproved_UsesAtomicIncrement(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDonationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "donations"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// The raised amount must move via an in-database increment, not a
	// read-modify-write from Go.
	mock.ExpectExec(`UPDATE "campaigns" SET .*"raised_amount"=raised_amount \+ \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.CreateApproved(&models.Donation{
		OrganizationID: uuid.New(),
		CampaignID:     uuid.New(),
		Amount:         100,
		Reference:      "DON-TEST",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateApproved_MissingCampaignRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDonationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "donations"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "campaigns"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.CreateApproved(&models.Donation{
		OrganizationID: uuid.New(),
		CampaignID:     uuid.New(),
		Amount:         100,
	})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordBilling_GuardsOnAnchor(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSubscriptionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "invoices"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "payments"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// The advancement is a compare-and-swap on the observed anchor; a
	// zero-row update rolls the whole cycle back.
	mock.ExpectExec(`UPDATE "subscriptions" SET .* WHERE id = \$\d+ AND is_active = \$\d+ AND next_billing_date = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	invoice := &models.Invoice{
		OrganizationID: uuid.New(),
		MemberID:       uuid.New(),
		InvoiceNumber:  "INV-TEST",
		Status:         models.InvoiceStatusPaid,
		Subtotal:       100,
		Total:          100,
	}
	payment := &models.Payment{
		OrganizationID: invoice.OrganizationID,
		MemberID:       invoice.MemberID,
		Amount:         100,
		PaymentMethod:  "card",
	}

	err := repo.RecordBilling(invoice, payment, BillingAdvancement{
		SubscriptionID: uuid.New(),
	})
	require.ErrorIs(t, err, ErrBillingConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}
