package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"parkease-backend/internal/domain"
	"parkease-backend/internal/geo"
	"parkease-backend/internal/logger"
	"parkease-backend/internal/repository"
)

const resourceColumns = `id, name, kind, owner_id, longitude, latitude, address, total_spots, available_spots,
	price_per_hour_cents, features, vehicle_types, open_time, close_time, state, created_on, updated_on`

type resourceRepository struct {
	db *sql.DB
}

func NewResourceRepository(db *sql.DB) repository.ResourceRepository {
	return &resourceRepository{db: db}
}

func scanResource(row rowScanner) (*domain.Resource, error) {
	var (
		res          domain.Resource
		features     []string
		vehicleTypes []string
	)
	err := row.Scan(
		&res.ID, &res.Name, &res.Kind, &res.OwnerID,
		&res.Location.Longitude, &res.Location.Latitude, &res.Location.Address,
		&res.TotalSpots, &res.AvailableSpots, &res.PricePerHourCents,
		pq.Array(&features), pq.Array(&vehicleTypes),
		&res.OperatingHours.Open, &res.OperatingHours.Close,
		&res.State, &res.CreatedOn, &res.UpdatedOn,
	)
	if err != nil {
		return nil, err
	}
	res.Features = make([]domain.Feature, 0, len(features))
	for _, f := range features {
		res.Features = append(res.Features, domain.Feature(f))
	}
	res.VehicleTypes = make([]domain.VehicleType, 0, len(vehicleTypes))
	for _, vt := range vehicleTypes {
		res.VehicleTypes = append(res.VehicleTypes, domain.VehicleType(vt))
	}
	return &res, nil
}

func featureStrings(fs []domain.Feature) []string {
	if fs == nil {
		return nil
	}
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = string(f)
	}
	return out
}

func vehicleTypeStrings(vts []domain.VehicleType) []string {
	if vts == nil {
		return nil
	}
	out := make([]string, len(vts))
	for i, vt := range vts {
		out[i] = string(vt)
	}
	return out
}

func (r *resourceRepository) Create(ctx context.Context, res *domain.Resource) error {
	logger.EnterMethod("resourceRepository.Create", "ownerID", res.OwnerID, "kind", res.Kind)

	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	features := featureStrings(res.Features)
	if features == nil {
		features = []string{}
	}
	vehicleTypes := vehicleTypeStrings(res.VehicleTypes)
	if vehicleTypes == nil {
		vehicleTypes = []string{}
	}

	query := `INSERT INTO parking_resources (` + resourceColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)
	          RETURNING created_on, updated_on`
	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query,
		res.ID, res.Name, res.Kind, res.OwnerID,
		res.Location.Longitude, res.Location.Latitude, res.Location.Address,
		res.TotalSpots, res.AvailableSpots, res.PricePerHourCents,
		pq.Array(features), pq.Array(vehicleTypes),
		res.OperatingHours.Open, res.OperatingHours.Close, res.State, now,
	).Scan(&res.CreatedOn, &res.UpdatedOn)
	if err != nil {
		logger.ExitMethodWithError("resourceRepository.Create", err, "ownerID", res.OwnerID)
		return translate(err, domain.ErrResourceNotFound)
	}

	logger.ExitMethod("resourceRepository.Create", "resourceID", res.ID)
	return nil
}

func (r *resourceRepository) GetByID(ctx context.Context, id string) (*domain.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM parking_resources WHERE id = $1`
	res, err := scanResource(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, domain.ErrResourceNotFound)
	}
	return res, nil
}

// Update writes every patched column in one statement. Right-hand sides
// of SET see the old row, so the availability shift uses the previous
// total.
func (r *resourceRepository) Update(ctx context.Context, id string, patch domain.ResourcePatch) (*domain.Resource, error) {
	logger.EnterMethod("resourceRepository.Update", "resourceID", id)

	var (
		longitude, latitude *float64
		address             *string
		openTime, closeTime *string
		features            []string
		vehicleTypes        []string
	)
	if patch.Location != nil {
		longitude = &patch.Location.Longitude
		latitude = &patch.Location.Latitude
		address = &patch.Location.Address
	}
	if patch.OperatingHours != nil {
		openTime = &patch.OperatingHours.Open
		closeTime = &patch.OperatingHours.Close
	}
	if patch.Features != nil {
		features = featureStrings(patch.Features)
	}
	if patch.VehicleTypes != nil {
		vehicleTypes = vehicleTypeStrings(patch.VehicleTypes)
	}

	query := `UPDATE parking_resources SET
	              name = COALESCE($2::TEXT, name),
	              kind = COALESCE($3::TEXT, kind),
	              longitude = COALESCE($4::DOUBLE PRECISION, longitude),
	              latitude = COALESCE($5::DOUBLE PRECISION, latitude),
	              address = COALESCE($6::TEXT, address),
	              available_spots = CASE WHEN $7::INTEGER IS NULL THEN available_spots
	                  ELSE GREATEST(0, LEAST($7::INTEGER, available_spots + ($7::INTEGER - total_spots))) END,
	              total_spots = COALESCE($7::INTEGER, total_spots),
	              price_per_hour_cents = COALESCE($8::BIGINT, price_per_hour_cents),
	              features = COALESCE($9::TEXT[], features),
	              vehicle_types = COALESCE($10::TEXT[], vehicle_types),
	              open_time = COALESCE($11::TEXT, open_time),
	              close_time = COALESCE($12::TEXT, close_time),
	              state = COALESCE($13::TEXT, state),
	              updated_on = $14
	          WHERE id = $1
	          RETURNING ` + resourceColumns

	logger.DatabaseCall("update", "parking_resources", "resourceID", id)
	res, err := scanResource(r.db.QueryRowContext(ctx, query,
		id, patch.Name, patch.Kind, longitude, latitude, address,
		patch.TotalSpots, patch.PricePerHourCents,
		pq.Array(features), pq.Array(vehicleTypes),
		openTime, closeTime, patch.State, time.Now().UTC(),
	))
	if err != nil {
		logger.ExitMethodWithError("resourceRepository.Update", err, "resourceID", id)
		return nil, translate(err, domain.ErrResourceNotFound)
	}

	logger.ExitMethod("resourceRepository.Update", "resourceID", id, "availableSpots", res.AvailableSpots)
	return res, nil
}

// Delete relies on ON DELETE CASCADE to drop the resource's reservations.
func (r *resourceRepository) Delete(ctx context.Context, id string) error {
	logger.DatabaseCall("delete", "parking_resources", "resourceID", id)
	result, err := r.db.ExecContext(ctx, `DELETE FROM parking_resources WHERE id = $1`, id)
	if err != nil {
		logger.DatabaseResult("delete", 0, err)
		return err
	}
	rows, err := result.RowsAffected()
	logger.DatabaseResult("delete", rows, err)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrResourceNotFound
	}
	return nil
}

func (r *resourceRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM parking_resources WHERE owner_id = $1 ORDER BY created_on, id`
	return r.queryResources(ctx, query, ownerID)
}

// FindWithin narrows candidates with the cap's bounding rectangle and the
// filter in SQL, then applies the exact spherical test.
func (r *resourceRepository) FindWithin(ctx context.Context, area *geo.SearchArea, filter domain.ResourceFilter) ([]domain.Resource, error) {
	logger.EnterMethod("resourceRepository.FindWithin", "vehicleType", filter.VehicleType, "features", filter.Features)

	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if area != nil {
		b := area.Bounds()
		conds = append(conds, fmt.Sprintf("latitude BETWEEN %s AND %s", arg(b.MinLat), arg(b.MaxLat)))
		if b.LngBounded {
			conds = append(conds, fmt.Sprintf("longitude BETWEEN %s AND %s", arg(b.MinLng), arg(b.MaxLng)))
		}
	}
	if len(filter.Features) > 0 {
		conds = append(conds, fmt.Sprintf("features @> %s::TEXT[]", arg(pq.Array(featureStrings(filter.Features)))))
	}
	if filter.VehicleType != "" {
		conds = append(conds, fmt.Sprintf("(cardinality(vehicle_types) = 0 OR %s = ANY(vehicle_types))", arg(string(filter.VehicleType))))
	}

	query := `SELECT ` + resourceColumns + ` FROM parking_resources`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_on, id`

	candidates, err := r.queryResources(ctx, query, args...)
	if err != nil {
		logger.ExitMethodWithError("resourceRepository.FindWithin", err)
		return nil, err
	}

	found := geo.Select(area, candidates, filter)
	logger.ExitMethod("resourceRepository.FindWithin", "candidates", len(candidates), "count", len(found))
	return found, nil
}

func (r *resourceRepository) SetAvailableSpots(ctx context.Context, id string, spots int) (*domain.Resource, error) {
	query := `UPDATE parking_resources SET available_spots = $2, updated_on = $3
	          WHERE id = $1
	          RETURNING ` + resourceColumns
	res, err := scanResource(r.db.QueryRowContext(ctx, query, id, spots, time.Now().UTC()))
	if err != nil {
		return nil, translate(err, domain.ErrResourceNotFound)
	}
	return res, nil
}

func (r *resourceRepository) queryResources(ctx context.Context, query string, args ...any) ([]domain.Resource, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	resources := []domain.Resource{}
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, *res)
	}
	return resources, rows.Err()
}
