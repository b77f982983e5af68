package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/datalith-ai/datastore-engine/pkg/apperrors"
	"github.com/datalith-ai/datastore-engine/pkg/database"
	"github.com/datalith-ai/datastore-engine/pkg/models"
)

// DatasourceRepository defines the data access used by the update workflow.
// Creation and deletion of datasources happen during ingestion setup, not
// here.
type DatasourceRepository interface {
	// GetByID retrieves a datasource by ID. Returns apperrors.ErrNotFound
	// when no such datasource exists.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Datasource, error)

	// UpdateForProcessing marks a datasource pending and replaces its config
	// in a single statement. The caller supplies the already-merged config.
	UpdateForProcessing(ctx context.Context, id uuid.UUID, config map[string]any) error

	// SetStatus updates only the status of a datasource.
	SetStatus(ctx context.Context, id uuid.UUID, status models.DatasourceStatus) error
}

// datasourceRepository implements DatasourceRepository using PostgreSQL.
type datasourceRepository struct {
	db *database.DB
}

// NewDatasourceRepository creates a new datasource repository.
func NewDatasourceRepository(db *database.DB) DatasourceRepository {
	return &datasourceRepository{db: db}
}

// GetByID retrieves a datasource by ID.
func (r *datasourceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Datasource, error) {
	query := `
		SELECT id, datastore_id, type, status, config, created_at, updated_at
		FROM datasources
		WHERE id = $1`

	var ds models.Datasource
	var rawConfig []byte
	err := r.db.QueryRow(ctx, query, id).Scan(
		&ds.ID,
		&ds.DatastoreID,
		&ds.Type,
		&ds.Status,
		&rawConfig,
		&ds.CreatedAt,
		&ds.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get datasource: %w", err)
	}

	if len(rawConfig) > 0 {
		if err := json.Unmarshal(rawConfig, &ds.Config); err != nil {
			return nil, fmt.Errorf("failed to decode datasource config: %w", err)
		}
	}
	if ds.Config == nil {
		ds.Config = make(map[string]any)
	}

	return &ds, nil
}

// UpdateForProcessing marks a datasource pending and replaces its config.
func (r *datasourceRepository) UpdateForProcessing(ctx context.Context, id uuid.UUID, config map[string]any) error {
	rawConfig, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode datasource config: %w", err)
	}

	query := `
		UPDATE datasources
		SET status = $2, config = $3, updated_at = $4
		WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, models.StatusPending, rawConfig, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update datasource: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// SetStatus updates only the status of a datasource.
func (r *datasourceRepository) SetStatus(ctx context.Context, id uuid.UUID, status models.DatasourceStatus) error {
	query := `UPDATE datasources SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set datasource status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// Ensure datasourceRepository implements DatasourceRepository at compile time.
var _ DatasourceRepository = (*datasourceRepository)(nil)
