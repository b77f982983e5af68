package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/datalith-ai/datastore-engine/pkg/apperrors"
	"github.com/datalith-ai/datastore-engine/pkg/database"
	"github.com/datalith-ai/datastore-engine/pkg/models"
)

// DatastoreRepository defines read access to datastores. Datastores are
// created and destroyed elsewhere; the update workflow only reads them.
type DatastoreRepository interface {
	// GetByID retrieves a datastore by ID including its API key set.
	// Returns apperrors.ErrNotFound when no such datastore exists.
	GetByID(ctx context.Context, id string) (*models.Datastore, error)
}

// datastoreRepository implements DatastoreRepository using PostgreSQL.
type datastoreRepository struct {
	db *database.DB
}

// NewDatastoreRepository creates a new datastore repository.
func NewDatastoreRepository(db *database.DB) DatastoreRepository {
	return &datastoreRepository{db: db}
}

// GetByID retrieves a datastore by ID including its API key set.
func (r *datastoreRepository) GetByID(ctx context.Context, id string) (*models.Datastore, error) {
	query := `
		SELECT id, name, visibility, created_at, updated_at
		FROM datastores
		WHERE id = $1`

	var ds models.Datastore
	err := r.db.QueryRow(ctx, query, id).Scan(
		&ds.ID,
		&ds.Name,
		&ds.Visibility,
		&ds.CreatedAt,
		&ds.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get datastore: %w", err)
	}

	keysQuery := `
		SELECT id, key, datastore_id, created_at
		FROM api_keys
		WHERE datastore_id = $1`

	rows, err := r.db.Query(ctx, keysQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key models.ApiKey
		if err := rows.Scan(&key.ID, &key.Key, &key.DatastoreID, &key.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		ds.ApiKeys = append(ds.ApiKeys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating api keys: %w", err)
	}

	return &ds, nil
}

// Ensure datastoreRepository implements DatastoreRepository at compile time.
var _ DatastoreRepository = (*datastoreRepository)(nil)
