package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/datalith-ai/datastore-engine/pkg/apperrors"
	"github.com/datalith-ai/datastore-engine/pkg/models"
	"github.com/datalith-ai/datastore-engine/pkg/services"
)

// mockUpdateService is a configurable DatasourceUpdateService for handler
// tests.
type mockUpdateService struct {
	result     *services.UpdateResult
	datasource *models.Datasource
	err        error

	gotReq    services.UpdateRequest
	gotHost   string
	gotHeader string
}

func (m *mockUpdateService) Update(ctx context.Context, req services.UpdateRequest, host, authHeader string) (*services.UpdateResult, error) {
	m.gotReq = req
	m.gotHost = host
	m.gotHeader = authHeader
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &services.UpdateResult{ID: req.ID}, nil
}

func (m *mockUpdateService) Get(ctx context.Context, id, host, authHeader string) (*models.Datasource, error) {
	m.gotHost = host
	m.gotHeader = authHeader
	if m.err != nil {
		return nil, m.err
	}
	return m.datasource, nil
}

func newUpdateRequest(body, host, authHeader string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/update", strings.NewReader(body))
	req.Host = host
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	return req
}

func TestUpdate_Success(t *testing.T) {
	svc := &mockUpdateService{}
	handler := NewUpdateHandler(svc, zap.NewNop())

	req := newUpdateRequest(
		`{"id":"ds-1","text":"content","metadata":{"lang":"en"}}`,
		"acme.example.com", "Bearer sk-1")
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp services.UpdateResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ds-1", resp.ID)

	assert.Equal(t, "acme.example.com", svc.gotHost)
	assert.Equal(t, "Bearer sk-1", svc.gotHeader)
	assert.Equal(t, "content", svc.gotReq.Text)
	assert.Equal(t, map[string]any{"lang": "en"}, svc.gotReq.Metadata)
}

func TestUpdate_InvalidBody(t *testing.T) {
	handler := NewUpdateHandler(&mockUpdateService{}, zap.NewNop())

	req := newUpdateRequest(`{not json`, "acme.example.com", "")
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdate_MissingID(t *testing.T) {
	handler := NewUpdateHandler(&mockUpdateService{}, zap.NewNop())

	req := newUpdateRequest(`{"text":"content"}`, "acme.example.com", "")
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "missing_id", resp["error"])
}

func TestUpdate_MissingSubdomainIsPlainText400(t *testing.T) {
	svc := &mockUpdateService{err: apperrors.ErrMissingTenant}
	handler := NewUpdateHandler(svc, zap.NewNop())

	req := newUpdateRequest(`{"id":"ds-1"}`, "example.com", "")
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Equal(t, "Missing subdomain\n", rec.Body.String())
}

func TestUpdate_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "datastore not found", err: apperrors.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: "not_found"},
		{name: "access denied", err: apperrors.ErrAccessDenied, wantStatus: http.StatusUnauthorized, wantCode: "unauthorized"},
		{name: "store failure", err: assert.AnError, wantStatus: http.StatusInternalServerError, wantCode: "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewUpdateHandler(&mockUpdateService{err: tt.err}, zap.NewNop())

			req := newUpdateRequest(`{"id":"ds-1"}`, "acme.example.com", "")
			rec := httptest.NewRecorder()

			handler.Update(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantCode, resp["error"])
		})
	}
}

func TestStatus_Success(t *testing.T) {
	dsID := uuid.New()
	svc := &mockUpdateService{
		datasource: &models.Datasource{
			ID:        dsID,
			Type:      "web_page",
			Status:    models.StatusRunning,
			UpdatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}
	handler := NewUpdateHandler(svc, zap.NewNop())

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/datasources/"+dsID.String(), nil)
	req.Host = "acme.example.com"
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp DatasourceStatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, dsID.String(), resp.ID)
	assert.Equal(t, "web_page", resp.Type)
	assert.Equal(t, "running", resp.Status)
	assert.Equal(t, "2026-03-01T12:00:00Z", resp.UpdatedAt)
}

func TestStatus_AccessDenied(t *testing.T) {
	svc := &mockUpdateService{err: apperrors.ErrAccessDenied}
	handler := NewUpdateHandler(svc, zap.NewNop())

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/datasources/"+uuid.New().String(), nil)
	req.Host = "acme.example.com"
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdate_RouteRejectsGet(t *testing.T) {
	handler := NewUpdateHandler(&mockUpdateService{}, zap.NewNop())

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/update", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
