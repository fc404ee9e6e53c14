package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"parkease-backend/internal/domain"
	"parkease-backend/internal/logger"
	"parkease-backend/internal/repository"
)

const reservationColumns = `id, subject_id, resource_id, start_time, end_time, duration_hours, total_price_cents,
	plate_number, vehicle_type, status, comment, notified, created_on, updated_on`

type reservationRepository struct {
	db *sql.DB
}

func NewReservationRepository(db *sql.DB) repository.ReservationRepository {
	return &reservationRepository{db: db}
}

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	var rsv domain.Reservation
	err := row.Scan(
		&rsv.ID, &rsv.SubjectID, &rsv.ResourceID, &rsv.StartTime, &rsv.EndTime,
		&rsv.DurationHours, &rsv.TotalPriceCents,
		&rsv.Vehicle.PlateNumber, &rsv.Vehicle.VehicleType,
		&rsv.Status, &rsv.Comment, &rsv.Notified, &rsv.CreatedOn, &rsv.UpdatedOn,
	)
	if err != nil {
		return nil, err
	}
	return &rsv, nil
}

func (r *reservationRepository) Create(ctx context.Context, rsv *domain.Reservation) error {
	logger.EnterMethod("reservationRepository.Create", "resourceID", rsv.ResourceID, "subjectID", rsv.SubjectID)

	if rsv.ID == "" {
		rsv.ID = uuid.NewString()
	}
	query := `INSERT INTO reservations (` + reservationColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
	          RETURNING created_on, updated_on`
	err := r.db.QueryRowContext(ctx, query,
		rsv.ID, rsv.SubjectID, rsv.ResourceID, rsv.StartTime, rsv.EndTime,
		rsv.DurationHours, rsv.TotalPriceCents,
		rsv.Vehicle.PlateNumber, rsv.Vehicle.VehicleType,
		rsv.Status, rsv.Comment, rsv.Notified, time.Now().UTC(),
	).Scan(&rsv.CreatedOn, &rsv.UpdatedOn)
	if err != nil {
		logger.ExitMethodWithError("reservationRepository.Create", err, "resourceID", rsv.ResourceID)
		return translate(err, domain.ErrResourceNotFound)
	}

	logger.ExitMethod("reservationRepository.Create", "reservationID", rsv.ID)
	return nil
}

func (r *reservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	rsv, err := scanReservation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, domain.ErrReservationNotFound)
	}
	return rsv, nil
}

func (r *reservationRepository) ListBySubject(ctx context.Context, subjectID string, status domain.ReservationStatus) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
	          WHERE subject_id = $1 AND ($2 = '' OR status = $2)
	          ORDER BY created_on DESC, id`
	return r.queryReservations(ctx, query, subjectID, string(status))
}

func (r *reservationRepository) ListByOwner(ctx context.Context, ownerID string, status domain.ReservationStatus) ([]domain.Reservation, error) {
	query := `SELECT r.id, r.subject_id, r.resource_id, r.start_time, r.end_time, r.duration_hours, r.total_price_cents,
	                 r.plate_number, r.vehicle_type, r.status, r.comment, r.notified, r.created_on, r.updated_on
	          FROM reservations r
	          JOIN parking_resources p ON p.id = r.resource_id
	          WHERE p.owner_id = $1 AND ($2 = '' OR r.status = $2)
	          ORDER BY r.created_on DESC, r.id`
	return r.queryReservations(ctx, query, ownerID, string(status))
}

// ApplyTransition runs the status compare-and-set and the counter update in
// one transaction. If the counter update finds no spot the rollback also
// undoes the status change.
func (r *reservationRepository) ApplyTransition(ctx context.Context, t domain.Transition) (*domain.Reservation, *domain.Resource, error) {
	logger.EnterMethod("reservationRepository.ApplyTransition",
		"reservationID", t.ReservationID, "from", t.From, "to", t.To, "spotDelta", t.SpotDelta)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.ExitMethodWithError("reservationRepository.ApplyTransition", err, "reservationID", t.ReservationID)
		return nil, nil, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	casQuery := `UPDATE reservations SET status = $3, comment = COALESCE($4::TEXT, comment), updated_on = $5
	             WHERE id = $1 AND status = $2
	             RETURNING ` + reservationColumns
	rsv, err := scanReservation(tx.QueryRowContext(ctx, casQuery, t.ReservationID, t.From, t.To, t.Comment, now))
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM reservations WHERE id = $1)`, t.ReservationID).Scan(&exists); err != nil {
			return nil, nil, err
		}
		if !exists {
			return nil, nil, domain.ErrReservationNotFound
		}
		logger.ExitMethod("reservationRepository.ApplyTransition", "reservationID", t.ReservationID, "outcome", "stale")
		return nil, nil, domain.ErrStaleStatus
	}
	if err != nil {
		logger.ExitMethodWithError("reservationRepository.ApplyTransition", err, "reservationID", t.ReservationID)
		return nil, nil, err
	}

	var (
		spotQuery string
		args      []any
	)
	switch {
	case t.SpotDelta < 0:
		spotQuery = `UPDATE parking_resources SET available_spots = available_spots + $3, updated_on = $2
		             WHERE id = $1 AND available_spots + $3 >= 0
		             RETURNING ` + resourceColumns
		args = []any{t.ResourceID, now, t.SpotDelta}
	case t.SpotDelta > 0:
		spotQuery = `UPDATE parking_resources SET available_spots = LEAST(total_spots, available_spots + $3), updated_on = $2
		             WHERE id = $1
		             RETURNING ` + resourceColumns
		args = []any{t.ResourceID, now, t.SpotDelta}
	default:
		spotQuery = `SELECT ` + resourceColumns + ` FROM parking_resources WHERE id = $1`
		args = []any{t.ResourceID}
	}
	res, err := scanResource(tx.QueryRowContext(ctx, spotQuery, args...))
	if errors.Is(err, sql.ErrNoRows) {
		if t.SpotDelta < 0 {
			logger.ExitMethod("reservationRepository.ApplyTransition", "reservationID", t.ReservationID, "outcome", "no availability")
			return nil, nil, domain.ErrNoAvailability
		}
		return nil, nil, domain.ErrResourceNotFound
	}
	if err != nil {
		logger.ExitMethodWithError("reservationRepository.ApplyTransition", err, "reservationID", t.ReservationID)
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		logger.ExitMethodWithError("reservationRepository.ApplyTransition", err, "reservationID", t.ReservationID)
		return nil, nil, err
	}

	logger.ExitMethod("reservationRepository.ApplyTransition", "reservationID", t.ReservationID, "availableSpots", res.AvailableSpots)
	return rsv, res, nil
}

func (r *reservationRepository) MarkNotified(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE reservations SET notified = true WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

func (r *reservationRepository) ListUnnotified(ctx context.Context, updatedBefore time.Time, limit int) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
	          WHERE status = ANY($1) AND NOT notified AND updated_on < $2
	          ORDER BY updated_on, id
	          LIMIT $3`
	statuses := pq.Array([]string{string(domain.ReservationStatusApproved), string(domain.ReservationStatusActive)})
	return r.queryReservations(ctx, query, statuses, updatedBefore, limitOrAll(limit))
}

func (r *reservationRepository) ListEndedBefore(ctx context.Context, cutoff time.Time, statuses []domain.ReservationStatus, limit int) ([]domain.Reservation, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	query := `SELECT ` + reservationColumns + ` FROM reservations
	          WHERE end_time < $1 AND status = ANY($2)
	          ORDER BY end_time, id
	          LIMIT $3`
	return r.queryReservations(ctx, query, cutoff, pq.Array(names), limitOrAll(limit))
}

func (r *reservationRepository) queryReservations(ctx context.Context, query string, args ...any) ([]domain.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reservations := []domain.Reservation{}
	for rows.Next() {
		rsv, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *rsv)
	}
	return reservations, rows.Err()
}

// limitOrAll turns a non-positive limit into NULL, which LIMIT treats as
// no limit.
func limitOrAll(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
