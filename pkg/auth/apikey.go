// Package auth implements the visibility-based access policy for datastores.
package auth

import (
	"strings"

	"github.com/datalith-ai/datastore-engine/pkg/models"
)

// BearerToken extracts the credential from an Authorization header of the
// form "<scheme> <token>". A missing header or a header without a second
// segment yields "". Absence is not an error here; it only matters once a
// private datastore is being accessed.
func BearerToken(header string) string {
	fields := strings.Fields(header)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

// Authorize decides whether a caller holding token may act on resources
// owned by the datastore. Public datastores are open to everyone; private
// datastores require an exact match against one of their API keys.
func Authorize(ds *models.Datastore, token string) bool {
	if ds.Visibility != models.VisibilityPrivate {
		return true
	}
	return token != "" && ds.HasKey(token)
}
