package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/ip-profiler/internal/models"
	"github.com/jackc/pgx/v5"
)

var (
	ErrLinkNotFound = errors.New("shared link not found")
)

type LinkRepository interface {
	Create(ctx context.Context, link *models.SharedLink) error
	GetByID(ctx context.Context, id string) (*models.SharedLink, error)
}

type linkRepository struct {
	db *PostgresDB
}

func NewLinkRepository(db *PostgresDB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Create(ctx context.Context, link *models.SharedLink) error {
	query := `
		INSERT INTO shared_links (id, owner_email, created_at)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(
		ctx,
		query,
		link.ID,
		link.OwnerEmail,
		link.CreatedAt,
	).Scan(&link.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create shared link: %w", err)
	}

	return nil
}

func (r *linkRepository) GetByID(ctx context.Context, id string) (*models.SharedLink, error) {
	query := `
		SELECT id, owner_email, created_at
		FROM shared_links
		WHERE id = $1
	`

	link := &models.SharedLink{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&link.ID,
		&link.OwnerEmail,
		&link.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get shared link: %w", err)
	}

	return link, nil
}
