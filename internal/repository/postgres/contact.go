package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"parkease-backend/internal/domain"
	"parkease-backend/internal/repository"
)

type contactRepository struct {
	db *sql.DB
}

func NewContactRepository(db *sql.DB) repository.ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) GetContact(ctx context.Context, userID string) (*domain.Contact, error) {
	c := &domain.Contact{}
	query := `SELECT id, name, email, push_token FROM users WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&c.UserID, &c.Name, &c.Email, &c.PushToken)
	if err != nil {
		return nil, translate(err, domain.ErrContactNotFound)
	}
	return c, nil
}

func (r *contactRepository) UpsertContact(ctx context.Context, c *domain.Contact) error {
	if c.UserID == "" {
		return fmt.Errorf("%w: contact user id is required", domain.ErrValidation)
	}
	query := `INSERT INTO users (id, name, email, push_token, updated_on) VALUES ($1, $2, $3, $4, $5)
	          ON CONFLICT (id) DO UPDATE
	          SET name = EXCLUDED.name, email = EXCLUDED.email, push_token = EXCLUDED.push_token, updated_on = EXCLUDED.updated_on`
	_, err := r.db.ExecContext(ctx, query, c.UserID, c.Name, c.Email, c.PushToken, time.Now().UTC())
	return err
}
