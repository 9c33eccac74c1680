package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/authguard/authguard-api/internal/api/dto"
	"github.com/authguard/authguard-api/internal/domain"
	"github.com/authguard/authguard-api/internal/service"
	"github.com/authguard/authguard-api/internal/utils"
)

type MockTenantService struct {
	mock.Mock
}

func (m *MockTenantService) CreateMatrixTenant(ctx context.Context, ownerID string, req dto.CreateTenantRequest) (*domain.Tenant, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

func (m *MockTenantService) CreateSubTenant(ctx context.Context, parentTenantID string, req dto.CreateSubTenantRequest) (*domain.Tenant, error) {
	args := m.Called(ctx, parentTenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

func (m *MockTenantService) CreateBranch(ctx context.Context, matrixTenantID, callerID string, req dto.CreateBranchRequest) (*domain.Branch, error) {
	args := m.Called(ctx, matrixTenantID, callerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Branch), args.Error(1)
}

func (m *MockTenantService) DeleteTenant(ctx context.Context, tenantID string) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

func (m *MockTenantService) UpdateTenantStatus(ctx context.Context, tenantID string, status domain.TenantStatus) (*domain.Tenant, error) {
	args := m.Called(ctx, tenantID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

func (m *MockTenantService) GetByID(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

func (m *MockTenantService) List(ctx context.Context) ([]domain.Tenant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Tenant), args.Error(1)
}

func (m *MockTenantService) GetHierarchy(ctx context.Context, tenantID string) (*domain.Tenant, *domain.Tenant, []domain.Tenant, error) {
	args := m.Called(ctx, tenantID)
	var tenant, parent *domain.Tenant
	var subTenants []domain.Tenant
	if args.Get(0) != nil {
		tenant = args.Get(0).(*domain.Tenant)
	}
	if args.Get(1) != nil {
		parent = args.Get(1).(*domain.Tenant)
	}
	if args.Get(2) != nil {
		subTenants = args.Get(2).([]domain.Tenant)
	}
	return tenant, parent, subTenants, args.Error(3)
}

func (m *MockTenantService) ListBranches(ctx context.Context, matrixTenantID string) ([]domain.Branch, error) {
	args := m.Called(ctx, matrixTenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Branch), args.Error(1)
}

func (m *MockTenantService) Stats(ctx context.Context, tenantID string) (*dto.TenantStatsResponse, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TenantStatsResponse), args.Error(1)
}

type TenantHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockService *MockTenantService
	handler     *TenantHandler
}

// fakeAuth injects claims the way the JWT middleware would.
func fakeAuth(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(string(utils.UserIDKey), userID)
		c.Set(string(utils.ClaimsKey), jwt.MapClaims{"user_id": userID})
		c.Next()
	}
}

func (s *TenantHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.mockService = new(MockTenantService)
	s.handler = NewTenantHandler(s.mockService)

	// Setup routes
	s.router.POST("/tenants", fakeAuth("owner-1"), s.handler.CreateTenant)
	s.router.GET("/tenants/:id", s.handler.GetTenant)
	s.router.DELETE("/tenants/:id", s.handler.DeleteTenant)
	s.router.POST("/tenants/:id/branches", fakeAuth("owner-1"), s.handler.CreateBranch)
	s.router.POST("/tenants/:id/sub-tenants", fakeAuth("owner-1"), s.handler.CreateSubTenant)
	s.router.GET("/tenants/:id/hierarchy", s.handler.GetHierarchy)
}

func TestTenantHandler(t *testing.T) {
	suite.Run(t, new(TenantHandlerTestSuite))
}

func (s *TenantHandlerTestSuite) postJSON(path string, body any) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)
	return w
}

func (s *TenantHandlerTestSuite) TestCreateTenant_Success() {
	s.mockService.On("CreateMatrixTenant", mock.Anything, "owner-1", dto.CreateTenantRequest{Name: "Acme Corp"}).
		Return(&domain.Tenant{
			ID:      "t1",
			Name:    "Acme Corp",
			Slug:    "tenant_acme_corp",
			Type:    domain.TenantTypeMatrix,
			Status:  domain.TenantStatusActive,
			OwnerID: "owner-1",
		}, nil)

	w := s.postJSON("/tenants", dto.CreateTenantRequest{Name: "Acme Corp"})

	s.Equal(http.StatusCreated, w.Code)

	var resp dto.TenantResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("tenant_acme_corp", resp.Slug)
	s.Equal("active", resp.Status)
	s.mockService.AssertExpectations(s.T())
}

func (s *TenantHandlerTestSuite) TestCreateTenant_MissingName() {
	w := s.postJSON("/tenants", map[string]string{"domain": "acme.example.com"})

	s.Equal(http.StatusBadRequest, w.Code)
	s.mockService.AssertNotCalled(s.T(), "CreateMatrixTenant", mock.Anything, mock.Anything, mock.Anything)
}

func (s *TenantHandlerTestSuite) TestCreateTenant_NameTaken() {
	s.mockService.On("CreateMatrixTenant", mock.Anything, "owner-1", mock.Anything).
		Return(nil, service.ErrTenantNameTaken)

	w := s.postJSON("/tenants", dto.CreateTenantRequest{Name: "Acme"})

	s.Equal(http.StatusConflict, w.Code)
}

func (s *TenantHandlerTestSuite) TestCreateTenant_ValidationError() {
	s.mockService.On("CreateMatrixTenant", mock.Anything, "owner-1", mock.Anything).
		Return(nil, &service.ValidationError{Field: "name", Message: "must be at least 2 characters"})

	w := s.postJSON("/tenants", dto.CreateTenantRequest{Name: "a"})

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *TenantHandlerTestSuite) TestCreateBranch_ForwardsCaller() {
	s.mockService.On("CreateBranch", mock.Anything, "t1", "owner-1", dto.CreateBranchRequest{Name: "Downtown"}).
		Return(&domain.Branch{ID: 1, Name: "Downtown", Slug: "downtown", MatrixTenantID: "t1"}, nil)

	w := s.postJSON("/tenants/t1/branches", dto.CreateBranchRequest{Name: "Downtown"})

	s.Equal(http.StatusCreated, w.Code)

	var resp dto.BranchResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("downtown", resp.Slug)
}

func (s *TenantHandlerTestSuite) TestCreateBranch_NotOwner() {
	s.mockService.On("CreateBranch", mock.Anything, "t1", "owner-1", mock.Anything).
		Return(nil, service.ErrNotTenantOwner)

	w := s.postJSON("/tenants/t1/branches", dto.CreateBranchRequest{Name: "Downtown"})

	s.Equal(http.StatusForbidden, w.Code)
}

func (s *TenantHandlerTestSuite) TestCreateSubTenant_ParentNotMatrix() {
	s.mockService.On("CreateSubTenant", mock.Anything, "sub-1", mock.Anything).
		Return(nil, service.ErrNotMatrixTenant)

	w := s.postJSON("/tenants/sub-1/sub-tenants", dto.CreateSubTenantRequest{Name: "West"})

	// Nesting under a non-matrix parent is a hierarchy conflict, not a
	// malformed request.
	s.Equal(http.StatusConflict, w.Code)
}

func (s *TenantHandlerTestSuite) TestGetTenant_NotFound() {
	s.mockService.On("GetByID", mock.Anything, "ghost").Return(nil, service.ErrTenantNotFound)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tenants/ghost", nil)
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusNotFound, w.Code)
}

func (s *TenantHandlerTestSuite) TestDeleteTenant_HasSubTenants() {
	s.mockService.On("DeleteTenant", mock.Anything, "t1").Return(service.ErrHasSubTenants)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/tenants/t1", nil)
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusConflict, w.Code)
}

func (s *TenantHandlerTestSuite) TestDeleteTenant_Success() {
	s.mockService.On("DeleteTenant", mock.Anything, "t1").Return(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/tenants/t1", nil)
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusNoContent, w.Code)
}

func (s *TenantHandlerTestSuite) TestGetHierarchy() {
	parentID := "t0"
	s.mockService.On("GetHierarchy", mock.Anything, "t1").Return(
		&domain.Tenant{ID: "t1", Slug: "tenant_west", ParentTenantID: &parentID},
		&domain.Tenant{ID: "t0", Slug: "tenant_acme"},
		[]domain.Tenant{},
		nil,
	)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tenants/t1/hierarchy", nil)
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)

	var resp dto.TenantHierarchyResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("tenant_west", resp.Tenant.Slug)
	s.Require().NotNil(resp.Parent)
	s.Equal("tenant_acme", resp.Parent.Slug)
}
