package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/manorfm/identity-server/internal/application"
	"github.com/manorfm/identity-server/internal/domain"
	"github.com/manorfm/identity-server/internal/interfaces/http/dto"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEntityHandler_Create(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mockSetup      func(*MockEntityManager)
		expectedStatus int
	}{
		{
			name: "registered",
			body: `{"username":"alice","domain":"example.org","password_hash":"hash","password_salt":"salt","admin":true}`,
			mockSetup: func(m *MockEntityManager) {
				m.On("Register", mock.Anything, application.EntityRegistration{
					Username:     "alice",
					Domain:       "example.org",
					PasswordHash: "hash",
					PasswordSalt: "salt",
					Admin:        true,
				}).Return(&domain.Entity{ID: ulid.Make(), Username: "alice", Domain: "example.org", Admin: true}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing password hash",
			body:           `{"username":"alice","domain":"example.org","password_salt":"salt"}`,
			mockSetup:      func(m *MockEntityManager) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid domain",
			body:           `{"username":"alice","domain":"not a domain","password_hash":"hash","password_salt":"salt"}`,
			mockSetup:      func(m *MockEntityManager) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "username taken",
			body: `{"username":"alice","domain":"example.org","password_hash":"hash","password_salt":"salt"}`,
			mockSetup: func(m *MockEntityManager) {
				m.On("Register", mock.Anything, mock.Anything).Return(nil, domain.ErrEntityAlreadyExists)
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockEntityManager)
			tt.mockSetup(service)
			h := NewEntityHandler(service, zap.NewNop())

			req := httptest.NewRequest(http.MethodPost, "/api/entities", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			h.CreateEntityHandler(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusCreated {
				var resp dto.EntityResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Equal(t, "alice@example.org", resp.Entity)
				assert.True(t, resp.Admin)
				assert.NotContains(t, w.Body.String(), "hash")
			}
			service.AssertExpectations(t)
		})
	}
}

func TestEntityHandler_Get(t *testing.T) {
	id := ulid.Make()

	tests := []struct {
		name           string
		param          string
		mockSetup      func(*MockEntityManager)
		expectedStatus int
	}{
		{
			name:  "found",
			param: id.String(),
			mockSetup: func(m *MockEntityManager) {
				m.On("Get", mock.Anything, id).Return(&domain.Entity{ID: id, Username: "alice", Domain: "example.org"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "not found",
			param: id.String(),
			mockSetup: func(m *MockEntityManager) {
				m.On("Get", mock.Anything, id).Return(nil, domain.ErrEntityNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "malformed id",
			param:          "nope",
			mockSetup:      func(m *MockEntityManager) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockEntityManager)
			tt.mockSetup(service)
			h := NewEntityHandler(service, zap.NewNop())

			req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/entities/"+tt.param, nil), "id", tt.param)
			w := httptest.NewRecorder()
			h.GetEntityHandler(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			service.AssertExpectations(t)
		})
	}
}
