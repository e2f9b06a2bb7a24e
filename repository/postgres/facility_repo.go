package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spotsync/backend/domain"
	"github.com/spotsync/backend/pkg/geo"
	"github.com/spotsync/backend/repository"
)

type facilityRepository struct {
	pool *pgxpool.Pool
}

// NewFacilityRepository returns a Postgres-backed implementation of FacilityRepository.
func NewFacilityRepository(pool *pgxpool.Pool) repository.FacilityRepository {
	return &facilityRepository{pool: pool}
}

const facilityColumns = `id, external_id, kind, name, address, latitude, longitude,
	total_count, available_count, extra, collected_at, created_at, updated_at`

func (r *facilityRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Facility, error) {
	query := fmt.Sprintf(`SELECT %s FROM facility WHERE external_id = $1`, facilityColumns)
	row := r.pool.QueryRow(ctx, query, externalID)
	return scanFacility(row)
}

func (r *facilityRepository) Upsert(ctx context.Context, facility *domain.Facility) (*domain.Facility, error) {
	if facility == nil {
		return nil, domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO facility (external_id, kind, name, address, latitude, longitude,
		total_count, available_count, extra, collected_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (external_id) DO UPDATE SET
		kind = EXCLUDED.kind,
		name = EXCLUDED.name,
		address = EXCLUDED.address,
		latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude,
		total_count = EXCLUDED.total_count,
		available_count = EXCLUDED.available_count,
		extra = EXCLUDED.extra,
		collected_at = EXCLUDED.collected_at,
		updated_at = NOW()
	RETURNING id, created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		facility.ExternalID,
		string(facility.Kind),
		facility.Name,
		facility.Address,
		facility.Location.Latitude,
		facility.Location.Longitude,
		facility.Availability.Total,
		facility.Availability.Available,
		marshalExtra(facility.Extra),
		nullTime(facility.CollectedAt),
	).Scan(&facility.ID, &facility.CreatedAt, &facility.UpdatedAt); err != nil {
		return nil, err
	}

	return facility, nil
}

func (r *facilityRepository) UpdateAvailability(ctx context.Context, externalID string, available int, collectedAt time.Time) (*domain.Facility, error) {
	// Clamp in SQL so the invariant holds even under concurrent total changes.
	query := fmt.Sprintf(`
	UPDATE facility
	SET available_count = LEAST(GREATEST($2, 0), total_count),
		collected_at = $3,
		updated_at = NOW()
	WHERE external_id = $1
	RETURNING %s`, facilityColumns)

	row := r.pool.QueryRow(ctx, query, externalID, available, nullTime(collectedAt))
	return scanFacility(row)
}

func (r *facilityRepository) UpdateExtra(ctx context.Context, externalID string, extra domain.ExtraInfo, collectedAt time.Time) (*domain.Facility, error) {
	existing, err := r.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	merged := existing.Extra.Merge(extra)

	query := fmt.Sprintf(`
	UPDATE facility
	SET extra = $2,
		collected_at = $3,
		updated_at = NOW()
	WHERE external_id = $1
	RETURNING %s`, facilityColumns)

	row := r.pool.QueryRow(ctx, query, externalID, marshalExtra(merged), nullTime(collectedAt))
	return scanFacility(row)
}

func (r *facilityRepository) Delete(ctx context.Context, externalID string) error {
	const query = `DELETE FROM facility WHERE external_id = $1`
	tag, err := r.pool.Exec(ctx, query, externalID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrFacilityNotFound
	}
	return nil
}

func (r *facilityRepository) Search(ctx context.Context, filter repository.FacilitySearchFilter) ([]repository.FacilityHit, error) {
	size := clampSize(filter.Size)
	offset := filter.Page * size
	if offset < 0 {
		offset = 0
	}

	if !filter.HasCenter {
		return r.searchUnordered(ctx, filter, size, offset)
	}

	box := geo.BoundingBox(filter.Lat, filter.Lng, filter.RadiusKm)

	query := fmt.Sprintf(`
	SELECT %s,
		(6371 * acos(LEAST(1.0, cos(radians($1)) * cos(radians(latitude))
		* cos(radians(longitude) - radians($2))
		+ sin(radians($1)) * sin(radians(latitude))))) AS distance
	FROM facility
	WHERE latitude BETWEEN $4 AND $5
	  AND longitude BETWEEN $6 AND $7
	  AND ($8 = '' OR kind = $8)
	  AND (NOT $9 OR available_count > 0)
	  AND (NOT $10 OR (extra->>'free')::boolean IS TRUE OR (extra->>'base_fee')::int = 0)
	  AND (6371 * acos(LEAST(1.0, cos(radians($1)) * cos(radians(latitude))
		* cos(radians(longitude) - radians($2))
		+ sin(radians($1)) * sin(radians(latitude))))) <= $3
	ORDER BY distance
	LIMIT $11 OFFSET $12`, facilityColumns)

	rows, err := r.pool.Query(ctx, query,
		filter.Lat, filter.Lng, filter.RadiusKm,
		box.MinLat, box.MaxLat, box.MinLng, box.MaxLng,
		string(filter.Kind), filter.AvailableOnly, filter.FreeOnly,
		size, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []repository.FacilityHit
	for rows.Next() {
		facility, distance, err := scanFacilityWithDistance(rows)
		if err != nil {
			return nil, err
		}
		d := distance
		hits = append(hits, repository.FacilityHit{Facility: *facility, DistanceKm: &d})
	}
	return hits, rows.Err()
}

func (r *facilityRepository) searchUnordered(ctx context.Context, filter repository.FacilitySearchFilter, size, offset int) ([]repository.FacilityHit, error) {
	query := fmt.Sprintf(`
	SELECT %s
	FROM facility
	WHERE ($1 = '' OR kind = $1)
	  AND (NOT $2 OR available_count > 0)
	  AND (NOT $3 OR (extra->>'free')::boolean IS TRUE OR (extra->>'base_fee')::int = 0)
	ORDER BY id
	LIMIT $4 OFFSET $5`, facilityColumns)

	rows, err := r.pool.Query(ctx, query,
		string(filter.Kind), filter.AvailableOnly, filter.FreeOnly, size, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []repository.FacilityHit
	for rows.Next() {
		facility, err := scanFacility(rows)
		if err != nil {
			return nil, err
		}
		hits = append(hits, repository.FacilityHit{Facility: *facility})
	}
	return hits, rows.Err()
}

func (r *facilityRepository) CountByKind(ctx context.Context) (map[domain.FacilityKind]int64, error) {
	const query = `SELECT kind, COUNT(*) FROM facility GROUP BY kind`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.FacilityKind]int64)
	for rows.Next() {
		var kind string
		var count int64
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		counts[domain.FacilityKind(kind)] = count
	}
	return counts, rows.Err()
}

func (r *facilityRepository) ScanAll(ctx context.Context, fn func(*domain.Facility) error) error {
	query := fmt.Sprintf(`SELECT %s FROM facility ORDER BY id`, facilityColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		facility, err := scanFacility(rows)
		if err != nil {
			return err
		}
		if err := fn(facility); err != nil {
			return err
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFacility(row rowScanner) (*domain.Facility, error) {
	var f domain.Facility
	var (
		kind        string
		extra       []byte
		collectedAt *time.Time
	)

	if err := row.Scan(
		&f.ID,
		&f.ExternalID,
		&kind,
		&f.Name,
		&f.Address,
		&f.Location.Latitude,
		&f.Location.Longitude,
		&f.Availability.Total,
		&f.Availability.Available,
		&extra,
		&collectedAt,
		&f.CreatedAt,
		&f.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFacilityNotFound
		}
		return nil, err
	}

	f.Kind = domain.FacilityKind(kind)
	f.Extra = unmarshalExtra(extra)
	if collectedAt != nil {
		f.CollectedAt = *collectedAt
	}
	return &f, nil
}

func scanFacilityWithDistance(row rowScanner) (*domain.Facility, float64, error) {
	var f domain.Facility
	var (
		kind        string
		extra       []byte
		collectedAt *time.Time
		distance    float64
	)

	if err := row.Scan(
		&f.ID,
		&f.ExternalID,
		&kind,
		&f.Name,
		&f.Address,
		&f.Location.Latitude,
		&f.Location.Longitude,
		&f.Availability.Total,
		&f.Availability.Available,
		&extra,
		&collectedAt,
		&f.CreatedAt,
		&f.UpdatedAt,
		&distance,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, domain.ErrFacilityNotFound
		}
		return nil, 0, err
	}

	f.Kind = domain.FacilityKind(kind)
	f.Extra = unmarshalExtra(extra)
	if collectedAt != nil {
		f.CollectedAt = *collectedAt
	}
	return &f, distance, nil
}

func clampSize(size int) int {
	if size <= 0 || size > 100 {
		return 20
	}
	return size
}
