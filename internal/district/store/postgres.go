package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"cityscope/internal/district/models"
	"cityscope/pkg/platform/sentinel"
	txcontext "cityscope/pkg/platform/tx"
)

const uniqueViolation = "23505"

const districtColumns = `id, name, code, district_type, center_lat, center_lon, created_at`

// PostgresStore reads the catalog from PostgreSQL. Every lookup orders by
// id ASC so the first match is deterministic.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) execer(ctx context.Context) txcontext.Executor {
	return txcontext.Use(ctx, s.db)
}

// RunInTx runs fn with a transaction carried in its context. Inserts made
// through the store inside fn join the transaction.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return txcontext.Run(ctx, s.db, fn)
}

func (s *PostgresStore) FindByCode(ctx context.Context, code string) (*models.District, error) {
	return s.findOne(ctx, "find district by code",
		`SELECT `+districtColumns+` FROM districts WHERE lower(code) = $1 ORDER BY id ASC LIMIT 1`, code)
}

func (s *PostgresStore) FindByName(ctx context.Context, name string) (*models.District, error) {
	return s.findOne(ctx, "find district by name",
		`SELECT `+districtColumns+` FROM districts WHERE lower(name) = lower($1) ORDER BY id ASC LIMIT 1`, name)
}

// FindByNamePrefix runs a case-insensitive prefix match. LIKE
// metacharacters in prefix are escaped and match literally.
func (s *PostgresStore) FindByNamePrefix(ctx context.Context, prefix string) (*models.District, error) {
	return s.findOne(ctx, "find district by name prefix",
		`SELECT `+districtColumns+` FROM districts WHERE name ILIKE $1 ESCAPE '\' ORDER BY id ASC LIMIT 1`,
		escapeLike(prefix)+"%")
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.District, error) {
	return s.findOne(ctx, "find district by id",
		`SELECT `+districtColumns+` FROM districts WHERE id = $1`, id)
}

func (s *PostgresStore) findOne(ctx context.Context, op, query string, arg any) (*models.District, error) {
	d, err := scanDistrict(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}

// ListAll returns the whole catalog in id order.
func (s *PostgresStore) ListAll(ctx context.Context) ([]*models.District, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+districtColumns+` FROM districts ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list districts: %w", err)
	}
	return collectDistricts(rows)
}

// List returns one page of districts, newest first, and the total count.
func (s *PostgresStore) List(ctx context.Context, page models.Page) ([]*models.District, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM districts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count districts: %w", err)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+districtColumns+` FROM districts ORDER BY id DESC LIMIT $1 OFFSET $2`,
		page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list districts page: %w", err)
	}
	districts, err := collectDistricts(rows)
	if err != nil {
		return nil, 0, err
	}
	return districts, total, nil
}

// Insert stores a district and its metric rows, inside the context's
// transaction when there is one. A taken code yields sentinel.ErrAlreadyUsed.
func (s *PostgresStore) Insert(ctx context.Context, d *models.District, m models.Metrics) (*models.District, error) {
	exec := s.execer(ctx)
	stored := *d
	err := exec.QueryRowContext(ctx,
		`INSERT INTO districts (name, code, district_type, center_lat, center_lon)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		d.Name, d.Code, nullableType(d.Type), d.CenterLat, d.CenterLon,
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("district code %q: %w", d.Code, sentinel.ErrAlreadyUsed)
		}
		return nil, fmt.Errorf("insert district: %w", err)
	}

	for _, kind := range models.MetricKinds {
		table := metricTables[kind]
		for _, args := range table.insertArgs(m) {
			query := fmt.Sprintf(`INSERT INTO %s (district_id, %s) VALUES ($1, %s)`,
				table.name, strings.Join(table.columns, ", "), placeholders(2, len(table.columns)))
			if _, err := exec.ExecContext(ctx, query, append([]any{stored.ID}, args...)...); err != nil {
				return nil, fmt.Errorf("insert %s: %w", table.name, err)
			}
		}
	}
	return &stored, nil
}

// Truncate empties the catalog and restarts ID sequences.
func (s *PostgresStore) Truncate(ctx context.Context) error {
	names := []string{"districts"}
	for _, kind := range models.MetricKinds {
		names = append(names, metricTables[kind].name)
	}
	_, err := s.execer(ctx).ExecContext(ctx,
		`TRUNCATE `+strings.Join(names, ", ")+` RESTART IDENTITY CASCADE`)
	if err != nil {
		return fmt.Errorf("truncate catalog: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDistrict(row rowScanner) (*models.District, error) {
	var (
		d     models.District
		dtype sql.NullString
	)
	if err := row.Scan(&d.ID, &d.Name, &d.Code, &dtype, &d.CenterLat, &d.CenterLon, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.Type = models.DistrictType(dtype.String)
	return &d, nil
}

func collectDistricts(rows *sql.Rows) ([]*models.District, error) {
	defer rows.Close()
	var out []*models.District
	for rows.Next() {
		d, err := scanDistrict(rows)
		if err != nil {
			return nil, fmt.Errorf("scan district: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate districts: %w", err)
	}
	return out, nil
}

func nullableType(t models.DistrictType) sql.NullString {
	return sql.NullString{String: string(t), Valid: t != ""}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func placeholders(from, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(ps, ", ")
}
