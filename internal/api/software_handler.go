package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/authguard/authguard-api/internal/api/dto"
	"github.com/authguard/authguard-api/internal/domain"
	"github.com/authguard/authguard-api/internal/utils"
)

//go:generate mockery --name SoftwareCatalog --output ../mocks
type SoftwareCatalog interface {
	List(ctx context.Context) ([]domain.Software, error)
}

type SoftwareHandler struct {
	*BaseHandler
	catalog SoftwareCatalog
}

func NewSoftwareHandler(catalog SoftwareCatalog) *SoftwareHandler {
	return &SoftwareHandler{catalog: catalog}
}

// ListSoftware returns the global software catalog.
func (h *SoftwareHandler) ListSoftware(c *gin.Context) {
	software, err := h.catalog.List(h.RequestCtx(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.Error{Error: "Failed to list software"})
		return
	}

	c.JSON(http.StatusOK, software)
}

// AccessInfo runs behind the software access gate and echoes the validated
// session back to the caller. Useful as a cheap access probe for clients.
func (h *SoftwareHandler) AccessInfo(c *gin.Context) {
	software, _ := c.Get(string(utils.CurrentSoftwareKey))
	tenant, _ := c.Get(string(utils.CurrentTenantKey))
	user, _ := c.Get(string(utils.CurrentUserKey))
	license, _ := c.Get(string(utils.CurrentLicenseKey))

	sw, ok := software.(*domain.Software)
	if !ok {
		c.JSON(http.StatusInternalServerError, dto.Error{Error: "Access context missing"})
		return
	}
	t, _ := tenant.(*domain.Tenant)
	u, _ := user.(*domain.User)
	l, _ := license.(*domain.SoftwareLicense)

	resp := gin.H{
		"software": gin.H{"code": sw.Code, "name": sw.Name},
	}
	if t != nil {
		resp["tenant"] = gin.H{"id": t.ID, "slug": t.Slug, "name": t.Name}
	}
	if u != nil {
		resp["user"] = gin.H{"id": u.ID, "email": u.Email}
	}
	if l != nil {
		resp["license"] = gin.H{"status": l.Status, "expires_at": l.ExpiresAt, "max_users": l.MaxUsers}
	}

	c.JSON(http.StatusOK, resp)
}
