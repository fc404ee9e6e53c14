package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"parkease-backend/internal/domain"
	"parkease-backend/internal/logger"
	"parkease-backend/internal/repository"
)

//go:embed schema.sql
var schema string

// PostgreSQL error codes the store translates into domain errors.
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
)

type Store struct {
	db           *sql.DB
	resources    repository.ResourceRepository
	reservations repository.ReservationRepository
	contacts     repository.ContactRepository
}

var _ repository.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:           db,
		resources:    NewResourceRepository(db),
		reservations: NewReservationRepository(db),
		contacts:     NewContactRepository(db),
	}
}

// Open connects with lib/pq and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewStore(db), nil
}

// Migrate creates the tables the store needs if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	logger.DatabaseCall("migrate", "schema.sql")
	_, err := s.db.ExecContext(ctx, schema)
	logger.DatabaseResult("migrate", 0, err)
	if err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *Store) ResourceRepository() repository.ResourceRepository       { return s.resources }
func (s *Store) ReservationRepository() repository.ReservationRepository { return s.reservations }
func (s *Store) ContactRepository() repository.ContactRepository         { return s.contacts }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// translate maps driver errors onto the domain taxonomy. notFound is
// returned for sql.ErrNoRows.
func translate(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s", domain.ErrResourceNotFound, pqErr.Message)
		case codeUniqueViolation, codeCheckViolation:
			return fmt.Errorf("%w: %s", domain.ErrValidation, pqErr.Message)
		}
	}
	return err
}
