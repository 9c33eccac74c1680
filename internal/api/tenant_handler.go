package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/authguard/authguard-api/internal/api/dto"
	"github.com/authguard/authguard-api/internal/domain"
	"github.com/authguard/authguard-api/internal/utils"
)

//go:generate mockery --name TenantService --output ../mocks
type TenantService interface {
	CreateMatrixTenant(ctx context.Context, ownerID string, req dto.CreateTenantRequest) (*domain.Tenant, error)
	CreateSubTenant(ctx context.Context, parentTenantID string, req dto.CreateSubTenantRequest) (*domain.Tenant, error)
	CreateBranch(ctx context.Context, matrixTenantID, callerID string, req dto.CreateBranchRequest) (*domain.Branch, error)
	DeleteTenant(ctx context.Context, tenantID string) error
	UpdateTenantStatus(ctx context.Context, tenantID string, status domain.TenantStatus) (*domain.Tenant, error)
	GetByID(ctx context.Context, tenantID string) (*domain.Tenant, error)
	List(ctx context.Context) ([]domain.Tenant, error)
	GetHierarchy(ctx context.Context, tenantID string) (*domain.Tenant, *domain.Tenant, []domain.Tenant, error)
	ListBranches(ctx context.Context, matrixTenantID string) ([]domain.Branch, error)
	Stats(ctx context.Context, tenantID string) (*dto.TenantStatsResponse, error)
}

type TenantHandler struct {
	*BaseHandler
	service TenantService
}

func NewTenantHandler(service TenantService) *TenantHandler {
	return &TenantHandler{service: service}
}

// CreateTenant creates a top-level matrix tenant owned by the caller.
func (h *TenantHandler) CreateTenant(c *gin.Context) {
	var req dto.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error()})
		return
	}

	ctx := h.RequestCtx(c)
	ownerID, err := utils.GetUserIDFromContext(ctx)
	if err != nil {
		c.JSON(http.StatusUnauthorized, dto.Error{Error: err.Error()})
		return
	}

	tenant, err := h.service.CreateMatrixTenant(ctx, ownerID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewTenantResponse(tenant))
}

// CreateSubTenant creates a child tenant under the matrix tenant in the path.
func (h *TenantHandler) CreateSubTenant(c *gin.Context) {
	var req dto.CreateSubTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error()})
		return
	}

	tenant, err := h.service.CreateSubTenant(h.RequestCtx(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewTenantResponse(tenant))
}

// CreateBranch creates a branch inside the matrix tenant's schema.
func (h *TenantHandler) CreateBranch(c *gin.Context) {
	var req dto.CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error()})
		return
	}

	ctx := h.RequestCtx(c)
	callerID, err := utils.GetUserIDFromContext(ctx)
	if err != nil {
		c.JSON(http.StatusUnauthorized, dto.Error{Error: err.Error()})
		return
	}

	branch, err := h.service.CreateBranch(ctx, c.Param("id"), callerID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewBranchResponse(branch))
}

func (h *TenantHandler) GetTenant(c *gin.Context) {
	tenant, err := h.service.GetByID(h.RequestCtx(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTenantResponse(tenant))
}

func (h *TenantHandler) ListTenants(c *gin.Context) {
	tenants, err := h.service.List(h.RequestCtx(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTenantResponses(tenants))
}

func (h *TenantHandler) DeleteTenant(c *gin.Context) {
	if err := h.service.DeleteTenant(h.RequestCtx(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *TenantHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateTenantStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error()})
		return
	}

	tenant, err := h.service.UpdateTenantStatus(h.RequestCtx(c), c.Param("id"), domain.TenantStatus(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTenantResponse(tenant))
}

// GetHierarchy returns the tenant with its parent and direct sub-tenants.
func (h *TenantHandler) GetHierarchy(c *gin.Context) {
	tenant, parent, subTenants, err := h.service.GetHierarchy(h.RequestCtx(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := dto.TenantHierarchyResponse{
		Tenant:     dto.NewTenantResponse(tenant),
		SubTenants: dto.NewTenantResponses(subTenants),
	}
	if parent != nil {
		p := dto.NewTenantResponse(parent)
		resp.Parent = &p
	}

	c.JSON(http.StatusOK, resp)
}

func (h *TenantHandler) ListBranches(c *gin.Context) {
	branches, err := h.service.ListBranches(h.RequestCtx(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBranchResponses(branches))
}

// WorkspaceInfo echoes the tenant the guard resolved for this request.
func (h *TenantHandler) WorkspaceInfo(c *gin.Context) {
	tenant, err := utils.GetTenantFromContext(h.RequestCtx(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, dto.Error{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.NewTenantResponse(tenant))
}

func (h *TenantHandler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats(h.RequestCtx(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
