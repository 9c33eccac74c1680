package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/authguard/authguard-api/internal/schema"
)

type MockSchemaAuditor struct {
	mock.Mock
}

func (m *MockSchemaAuditor) Inspect(ctx context.Context) ([]schema.Report, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]schema.Report), args.Error(1)
}

func (m *MockSchemaAuditor) Fix(ctx context.Context, slug string) (schema.Report, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(schema.Report), args.Error(1)
}

type SchemaHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockAuditor *MockSchemaAuditor
	handler     *SchemaHandler
}

func (s *SchemaHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.mockAuditor = new(MockSchemaAuditor)
	s.handler = NewSchemaHandler(s.mockAuditor)

	s.router.GET("/schemas/status", s.handler.Status)
	s.router.POST("/schemas/:slug/fix", s.handler.Fix)
}

func TestSchemaHandler(t *testing.T) {
	suite.Run(t, new(SchemaHandlerTestSuite))
}

func (s *SchemaHandlerTestSuite) TestStatus() {
	s.mockAuditor.On("Inspect", mock.Anything).Return([]schema.Report{
		{Slug: "tenant_acme", Status: schema.StatusOK, SchemaExists: true},
		{Slug: "tenant_broken", Status: schema.StatusMissingTables, SchemaExists: true, MissingTables: []string{"branch_permission"}},
	}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/schemas/status", nil)
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)

	var resp struct {
		Schemas []schema.Report `json:"schemas"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Len(resp.Schemas, 2)
	s.Equal(schema.StatusMissingTables, resp.Schemas[1].Status)
}

func (s *SchemaHandlerTestSuite) TestStatus_InspectFails() {
	s.mockAuditor.On("Inspect", mock.Anything).Return(nil, errors.New("db down"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/schemas/status", nil)
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusInternalServerError, w.Code)
}

func (s *SchemaHandlerTestSuite) TestFix() {
	s.mockAuditor.On("Fix", mock.Anything, "tenant_acme").Return(schema.Report{
		Slug:     "tenant_acme",
		Status:   schema.StatusMissingSchema,
		Repaired: true,
	}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/schemas/tenant_acme/fix", nil)
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)

	var report schema.Report
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &report))
	s.True(report.Repaired)
}

func (s *SchemaHandlerTestSuite) TestFix_Error() {
	s.mockAuditor.On("Fix", mock.Anything, "tenant_ghost").Return(schema.Report{
		Slug:   "tenant_ghost",
		Status: schema.StatusError,
		Error:  "record not found",
	}, errors.New("record not found"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/schemas/tenant_ghost/fix", nil)
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusInternalServerError, w.Code)
}
