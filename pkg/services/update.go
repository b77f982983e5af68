package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datalith-ai/datastore-engine/pkg/apperrors"
	"github.com/datalith-ai/datastore-engine/pkg/auth"
	"github.com/datalith-ai/datastore-engine/pkg/dispatch"
	"github.com/datalith-ai/datastore-engine/pkg/models"
	"github.com/datalith-ai/datastore-engine/pkg/repositories"
	"github.com/datalith-ai/datastore-engine/pkg/tenant"
)

// UpdateRequest is the transient input for a datasource update. It lives
// only for the duration of one request.
type UpdateRequest struct {
	ID       string         `json:"id"`
	Text     string         `json:"text,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// UpdateResult echoes the updated datasource id back to the caller.
type UpdateResult struct {
	ID string `json:"id"`
}

// DatasourceUpdateService orchestrates the datasource update workflow:
// tenant resolution, authorization, ownership validation, the pending
// transition, and the asynchronous load trigger.
type DatasourceUpdateService interface {
	// Update runs the full workflow. host and authHeader are the raw Host
	// and Authorization header values of the inbound request.
	//
	// Errors map onto the access taxonomy: apperrors.ErrMissingTenant when
	// the host has no subdomain, apperrors.ErrNotFound when the datastore
	// does not exist, and apperrors.ErrAccessDenied for a failed credential
	// check or a datasource that is missing or owned by another datastore.
	// A dispatch failure is not an error to the caller; it is recorded as
	// the datasource's error status instead.
	Update(ctx context.Context, req UpdateRequest, host, authHeader string) (*UpdateResult, error)

	// Get loads a datasource under the same tenant, credential, and
	// ownership rules as Update, without mutating anything.
	Get(ctx context.Context, id, host, authHeader string) (*models.Datasource, error)
}

// datasourceUpdateService implements DatasourceUpdateService.
type datasourceUpdateService struct {
	resolver    *tenant.Resolver
	datastores  repositories.DatastoreRepository
	datasources repositories.DatasourceRepository
	dispatcher  dispatch.Dispatcher
	logger      *zap.Logger
}

// NewDatasourceUpdateService creates a new update service with dependencies.
func NewDatasourceUpdateService(
	resolver *tenant.Resolver,
	datastores repositories.DatastoreRepository,
	datasources repositories.DatasourceRepository,
	dispatcher dispatch.Dispatcher,
	logger *zap.Logger,
) DatasourceUpdateService {
	return &datasourceUpdateService{
		resolver:    resolver,
		datastores:  datastores,
		datasources: datasources,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

// Update runs the full workflow.
func (s *datasourceUpdateService) Update(ctx context.Context, req UpdateRequest, host, authHeader string) (*UpdateResult, error) {
	ds, err := s.authorizeDatasource(ctx, req.ID, host, authHeader)
	if err != nil {
		return nil, err
	}

	// The pending write must land before dispatch is attempted so the
	// "processing started" state is durable even if the trigger never
	// completes.
	merged := mergeConfig(ds.Config, req.Metadata)
	if err := s.datasources.UpdateForProcessing(ctx, ds.ID, merged); err != nil {
		return nil, fmt.Errorf("failed to mark datasource pending: %w", err)
	}

	if err := s.dispatcher.TriggerLoadDatasource(ctx, ds.ID, req.Text); err != nil {
		s.logger.Error("Failed to trigger datasource load",
			zap.String("datasource_id", ds.ID.String()),
			zap.Error(err))

		// Compensate: record the failure in the datasource itself. The
		// caller still gets a success response; the pending write above
		// already committed and the error status is the audit trail.
		if cerr := s.datasources.SetStatus(ctx, ds.ID, models.StatusError); cerr != nil {
			// A failed compensation is logged and otherwise swallowed so
			// the response contract stays uniform across dispatch outcomes.
			s.logger.Error("Failed to record dispatch failure on datasource",
				zap.String("datasource_id", ds.ID.String()),
				zap.Error(cerr))
		}
	}

	return &UpdateResult{ID: req.ID}, nil
}

// Get loads a datasource under the same access rules as Update.
func (s *datasourceUpdateService) Get(ctx context.Context, id, host, authHeader string) (*models.Datasource, error) {
	return s.authorizeDatasource(ctx, id, host, authHeader)
}

// authorizeDatasource performs tenant resolution, the credential check, and
// the ownership check, returning the target datasource. A missing datasource
// and one owned by another datastore both come back as ErrAccessDenied so
// callers cannot distinguish them.
func (s *datasourceUpdateService) authorizeDatasource(ctx context.Context, id, host, authHeader string) (*models.Datasource, error) {
	subdomain := s.resolver.Resolve(host)
	if subdomain == "" {
		return nil, apperrors.ErrMissingTenant
	}

	token := auth.BearerToken(authHeader)

	datastore, err := s.datastores.GetByID(ctx, subdomain)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load datastore %q: %w", subdomain, err)
	}

	if !auth.Authorize(datastore, token) {
		return nil, apperrors.ErrAccessDenied
	}

	// An unparseable id cannot name an existing datasource, so it folds
	// into the same denied outcome as a missing one.
	dsID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.ErrAccessDenied
	}

	ds, err := s.datasources.GetByID(ctx, dsID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrAccessDenied
		}
		return nil, fmt.Errorf("failed to load datasource %q: %w", id, err)
	}

	if ds.DatastoreID != datastore.ID {
		return nil, apperrors.ErrAccessDenied
	}

	return ds, nil
}

// mergeConfig shallow-merges metadata over config. Keys in metadata win;
// neither input map is mutated.
func mergeConfig(config, metadata map[string]any) map[string]any {
	merged := make(map[string]any, len(config)+len(metadata))
	for k, v := range config {
		merged[k] = v
	}
	for k, v := range metadata {
		merged[k] = v
	}
	return merged
}
