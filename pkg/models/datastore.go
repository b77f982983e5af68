package models

import (
	"time"

	"github.com/google/uuid"
)

// DatastoreVisibility controls who may read or mutate a datastore's
// datasources.
type DatastoreVisibility string

const (
	VisibilityPublic  DatastoreVisibility = "public"
	VisibilityPrivate DatastoreVisibility = "private"
)

// Datastore is the tenant-scoped container that owns datasources. Its ID is
// the subdomain label the tenant is addressed by.
type Datastore struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Visibility DatastoreVisibility `json:"visibility"`
	ApiKeys    []ApiKey            `json:"api_keys,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// ApiKey is an immutable credential belonging to exactly one datastore.
type ApiKey struct {
	ID          uuid.UUID `json:"id"`
	Key         string    `json:"key"`
	DatastoreID string    `json:"datastore_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasKey reports whether key exactly matches one of the datastore's API keys.
func (d *Datastore) HasKey(key string) bool {
	for _, k := range d.ApiKeys {
		if k.Key == key {
			return true
		}
	}
	return false
}
