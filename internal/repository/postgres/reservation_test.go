package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkease-backend/internal/domain"
)

var reservationColumnNames = []string{
	"id", "subject_id", "resource_id", "start_time", "end_time", "duration_hours", "total_price_cents",
	"plate_number", "vehicle_type", "status", "comment", "notified", "created_on", "updated_on",
}

func reservationRow(id string, status domain.ReservationStatus) *sqlmock.Rows {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(reservationColumnNames).AddRow(
		id, "driver-1", "res-1", start, start.Add(3*time.Hour), 3, int64(1500),
		"KA01AB1234", "car", string(status), "", false, start, start)
}

func approval(id string) domain.Transition {
	return domain.Transition{
		ReservationID: id,
		ResourceID:    "res-1",
		From:          domain.ReservationStatusPending,
		To:            domain.ReservationStatusApproved,
		SpotDelta:     -1,
	}
}

func TestReservationRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepository(db)
	ctx := context.Background()

	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	rsv := &domain.Reservation{
		SubjectID: "driver-1", ResourceID: "res-1",
		StartTime: start, EndTime: start.Add(3 * time.Hour),
		DurationHours: 3, TotalPriceCents: 1500,
		Vehicle: domain.Vehicle{PlateNumber: "KA01", VehicleType: domain.VehicleTypeCar},
		Status:  domain.ReservationStatusPending,
	}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO reservations").
			WillReturnRows(sqlmock.NewRows([]string{"created_on", "updated_on"}).AddRow(start, start))

		require.NoError(t, repo.Create(ctx, rsv))
		assert.NotEmpty(t, rsv.ID)
	})

	t.Run("UnknownResource", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO reservations").
			WillReturnError(&pq.Error{Code: "23503", Message: "violates foreign key constraint"})

		other := *rsv
		other.ID = ""
		assert.ErrorIs(t, repo.Create(ctx, &other), domain.ErrResourceNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_ApplyTransition(t *testing.T) {
	ctx := context.Background()

	t.Run("Approve", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewReservationRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE reservations SET status = \\$3").
			WithArgs("rsv-1", "pending", "approved", nil, sqlmock.AnyArg()).
			WillReturnRows(reservationRow("rsv-1", domain.ReservationStatusApproved))
		mock.ExpectQuery("UPDATE parking_resources SET available_spots = available_spots \\+ \\$3").
			WithArgs("res-1", sqlmock.AnyArg(), -1).
			WillReturnRows(resourceRow(sqlmock.NewRows(resourceColumnNames), "res-1", 77.59, 12.97, 1))
		mock.ExpectCommit()

		rsv, res, err := repo.ApplyTransition(ctx, approval("rsv-1"))
		require.NoError(t, err)
		assert.Equal(t, domain.ReservationStatusApproved, rsv.Status)
		assert.Equal(t, 1, res.AvailableSpots)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NoAvailability", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewReservationRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE reservations SET status").
			WillReturnRows(reservationRow("rsv-1", domain.ReservationStatusApproved))
		mock.ExpectQuery("UPDATE parking_resources SET available_spots").
			WillReturnRows(sqlmock.NewRows(resourceColumnNames))
		mock.ExpectRollback()

		_, _, err := repo.ApplyTransition(ctx, approval("rsv-1"))
		assert.ErrorIs(t, err, domain.ErrNoAvailability)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Stale", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewReservationRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE reservations SET status").
			WillReturnRows(sqlmock.NewRows(reservationColumnNames))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("rsv-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		_, _, err := repo.ApplyTransition(ctx, approval("rsv-1"))
		assert.ErrorIs(t, err, domain.ErrStaleStatus)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewReservationRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE reservations SET status").
			WillReturnRows(sqlmock.NewRows(reservationColumnNames))
		mock.ExpectQuery("SELECT EXISTS").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectRollback()

		_, _, err := repo.ApplyTransition(ctx, approval("missing"))
		assert.ErrorIs(t, err, domain.ErrReservationNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ReleaseClampsAtTotal", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewReservationRepository(db)
		comment := "lot closed"

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE reservations SET status").
			WithArgs("rsv-1", "approved", "rejected", comment, sqlmock.AnyArg()).
			WillReturnRows(reservationRow("rsv-1", domain.ReservationStatusRejected))
		mock.ExpectQuery("LEAST\\(total_spots, available_spots \\+ \\$3\\)").
			WithArgs("res-1", sqlmock.AnyArg(), 1).
			WillReturnRows(resourceRow(sqlmock.NewRows(resourceColumnNames), "res-1", 77.59, 12.97, 10))
		mock.ExpectCommit()

		_, res, err := repo.ApplyTransition(ctx, domain.Transition{
			ReservationID: "rsv-1", ResourceID: "res-1",
			From: domain.ReservationStatusApproved, To: domain.ReservationStatusRejected,
			Comment: &comment, SpotDelta: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, 10, res.AvailableSpots)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReservationRepository_MarkNotified(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepository(db)

	mock.ExpectExec("UPDATE reservations SET notified = true").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.MarkNotified(context.Background(), "missing"), domain.ErrReservationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_ListUnnotified(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepository(db)

	before := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM reservations WHERE status = ANY\\(\\$1\\) AND NOT notified AND updated_on < \\$2").
		WithArgs(pq.Array([]string{"approved", "active"}), before, 50).
		WillReturnRows(reservationRow("rsv-1", domain.ReservationStatusApproved))

	got, err := repo.ListUnnotified(context.Background(), before, 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.VehicleTypeCar, got[0].Vehicle.VehicleType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepository_GetContact(t *testing.T) {
	db, mock := newMock(t)
	repo := NewContactRepository(db)

	mock.ExpectQuery("SELECT id, name, email, push_token FROM users").
		WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetContact(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrContactNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
