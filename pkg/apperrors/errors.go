package apperrors

import "errors"

var (
	// ErrMissingTenant means the request host carried no resolvable
	// datastore subdomain.
	ErrMissingTenant = errors.New("missing subdomain")

	// ErrNotFound means the datastore for the resolved tenant does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAccessDenied covers both a failed credential check and a target
	// datasource that is missing or owned by another datastore. The two are
	// deliberately indistinguishable so callers cannot probe for resource
	// existence across tenants.
	ErrAccessDenied = errors.New("access denied")
)
