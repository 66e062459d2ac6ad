package siteconfig

import (
	"context"
	"strconv"

	"go_sitebuilder/internal/httpx"
	"go_sitebuilder/internal/siteconfig"

	"github.com/gin-gonic/gin"
)

// Assembler builds site configurations
type Assembler interface {
	Assemble(ctx context.Context, domain string) (*siteconfig.SiteConfiguration, error)
	AssembleForCompany(ctx context.Context, companyID int) (*siteconfig.SiteConfiguration, error)
}

// Handler 站点配置接口（公开）
type Handler struct {
	assembler Assembler
}

// NewHandler creates a new site config handler
func NewHandler(assembler Assembler) *Handler {
	return &Handler{assembler: assembler}
}

// ByDomain GET /api/v1/site-config?domain=
func (h *Handler) ByDomain(c *gin.Context) {
	domain := c.Query("domain")
	if domain == "" {
		httpx.FailErr(c, httpx.ErrParamMissing("domain is required"))
		return
	}

	cfg, err := h.assembler.Assemble(c.Request.Context(), domain)
	if err != nil {
		httpx.FailError(c, err)
		return
	}
	httpx.OK(c, cfg)
}

// ByCompany GET /api/v1/site-config/by-company/:id
func (h *Handler) ByCompany(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid company id"))
		return
	}

	cfg, err := h.assembler.AssembleForCompany(c.Request.Context(), id)
	if err != nil {
		httpx.FailError(c, err)
		return
	}
	httpx.OK(c, cfg)
}
