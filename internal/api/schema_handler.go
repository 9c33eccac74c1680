package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/authguard/authguard-api/internal/api/dto"
	"github.com/authguard/authguard-api/internal/schema"
)

//go:generate mockery --name SchemaAuditor --output ../mocks
type SchemaAuditor interface {
	Inspect(ctx context.Context) ([]schema.Report, error)
	Fix(ctx context.Context, slug string) (schema.Report, error)
}

// SchemaHandler exposes the consistency auditor: read-only status for all
// active tenants and a targeted repair of a single tenant.
type SchemaHandler struct {
	*BaseHandler
	auditor SchemaAuditor
}

func NewSchemaHandler(auditor SchemaAuditor) *SchemaHandler {
	return &SchemaHandler{auditor: auditor}
}

// Status reports schema health for every active tenant without repairing
// anything.
func (h *SchemaHandler) Status(c *gin.Context) {
	reports, err := h.auditor.Inspect(h.RequestCtx(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.Error{Error: "Schema inspection failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"schemas": reports})
}

// Fix audits and repairs a single tenant's schema.
func (h *SchemaHandler) Fix(c *gin.Context) {
	report, err := h.auditor.Fix(h.RequestCtx(c), c.Param("slug"))
	if err != nil && report.Status == schema.StatusError {
		c.JSON(http.StatusInternalServerError, report)
		return
	}

	c.JSON(http.StatusOK, report)
}
