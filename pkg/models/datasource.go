package models

import (
	"time"

	"github.com/google/uuid"
)

// DatasourceStatus tracks where a datasource sits in the ingestion pipeline.
// The update workflow only ever writes StatusPending and StatusError; the
// remaining states are owned by the downstream loader.
type DatasourceStatus string

const (
	StatusUnsynched DatasourceStatus = "unsynched"
	StatusPending   DatasourceStatus = "pending"
	StatusRunning   DatasourceStatus = "running"
	StatusSynched   DatasourceStatus = "synched"
	StatusError     DatasourceStatus = "error"
)

// Datasource is an ingested content resource belonging to a datastore.
// Config is a free-form mapping (source URL, chunking options, caller
// metadata) stored as jsonb.
type Datasource struct {
	ID          uuid.UUID        `json:"id"`
	DatastoreID string           `json:"datastore_id"`
	Type        string           `json:"type"` // "text", "file", "web_page", etc.
	Status      DatasourceStatus `json:"status"`
	Config      map[string]any   `json:"config"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
