package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/authguard/authguard-api/internal/domain"
	"github.com/authguard/authguard-api/internal/service"
	"github.com/authguard/authguard-api/internal/utils"
	"github.com/authguard/authguard-api/pkg/logger"
)

type MockAccessValidator struct {
	mock.Mock
}

func (m *MockAccessValidator) ValidateAccess(ctx context.Context, softwareCode, tenantSlug, userID string) (*service.AccessContext, error) {
	args := m.Called(ctx, softwareCode, tenantSlug, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AccessContext), args.Error(1)
}

type SoftwareAccessMiddlewareTestSuite struct {
	suite.Suite
	validator *MockAccessValidator
	router    *gin.Engine
	captured  *gin.Context
}

func (s *SoftwareAccessMiddlewareTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.validator = new(MockAccessValidator)
	mw := NewSoftwareAccessMiddleware(s.validator, logger.NewLogger("test"))
	s.router = gin.New()
	s.captured = nil
	s.router.GET("/", mw.Gate(), func(c *gin.Context) {
		s.captured = c
		c.Status(http.StatusOK)
	})
}

func TestSoftwareAccessMiddleware(t *testing.T) {
	suite.Run(t, new(SoftwareAccessMiddlewareTestSuite))
}

func (s *SoftwareAccessMiddlewareTestSuite) request(headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	s.router.ServeHTTP(w, req)
	return w
}

func fullHeaders() map[string]string {
	return map[string]string{
		HeaderSoftwareCode: "erp",
		HeaderTenantSlug:   "tenant_acme",
		HeaderUserID:       "u1",
	}
}

func (s *SoftwareAccessMiddlewareTestSuite) TestGate_Success() {
	tenantConn := &gorm.DB{}
	softwareConn := &gorm.DB{}
	s.validator.On("ValidateAccess", mock.Anything, "erp", "tenant_acme", "u1").
		Return(&service.AccessContext{
			Software:     &domain.Software{ID: "sw-1", Code: "erp"},
			Tenant:       &domain.Tenant{ID: "t1", Slug: "tenant_acme"},
			User:         &domain.User{ID: "u1"},
			License:      &domain.SoftwareLicense{ID: 1, Status: domain.LicenseStatusActive},
			TenantConn:   tenantConn,
			SoftwareConn: softwareConn,
		}, nil)

	w := s.request(fullHeaders())

	s.Equal(http.StatusOK, w.Code)

	got, exists := s.captured.Get(string(utils.SoftwareConnKey))
	s.True(exists)
	s.Same(softwareConn, got)

	// The request context carries the connections too
	conn, err := utils.GetSoftwareConnectionFromContext(s.captured.Request.Context())
	s.Require().NoError(err)
	s.Same(softwareConn, conn)
}

func (s *SoftwareAccessMiddlewareTestSuite) TestGate_MissingHeaders() {
	for _, drop := range []string{HeaderSoftwareCode, HeaderTenantSlug, HeaderUserID} {
		headers := fullHeaders()
		delete(headers, drop)

		w := s.request(headers)

		s.Equal(http.StatusUnauthorized, w.Code, "missing %s", drop)
	}
	s.validator.AssertNotCalled(s.T(), "ValidateAccess", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *SoftwareAccessMiddlewareTestSuite) TestGate_EntityFailuresForbidden() {
	for _, sentinel := range []error{
		service.ErrSoftwareNotFound,
		service.ErrTenantNotFound,
		service.ErrTenantNotActive,
		service.ErrUserNotFound,
		service.ErrLicenseNotFound,
		service.ErrLicenseExpired,
	} {
		s.SetupTest()
		s.validator.On("ValidateAccess", mock.Anything, "erp", "tenant_acme", "u1").
			Return(nil, sentinel)

		w := s.request(fullHeaders())

		s.Equal(http.StatusForbidden, w.Code, "sentinel %v", sentinel)
	}
}

func (s *SoftwareAccessMiddlewareTestSuite) TestGate_InfrastructureFailure() {
	s.validator.On("ValidateAccess", mock.Anything, "erp", "tenant_acme", "u1").
		Return(nil, errors.New("connection refused"))

	w := s.request(fullHeaders())

	s.Equal(http.StatusServiceUnavailable, w.Code)
}
