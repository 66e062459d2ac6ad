package domains

import (
	"strconv"

	"go_sitebuilder/api/v1/middleware"
	"go_sitebuilder/internal/customdomain"
	"go_sitebuilder/internal/httpx"
	"go_sitebuilder/internal/model"

	"github.com/gin-gonic/gin"
)

// CreateRequest 添加自定义域名
type CreateRequest struct {
	Domain string `json:"domain" binding:"required"`
}

// DomainDTO 返回给后台的域名信息，附带 DNS 配置说明
type DomainDTO struct {
	model.CustomDomain
	VerifyRecord string `json:"verifyRecord"` // TXT 记录名
	CNAMETarget  string `json:"cnameTarget"`
}

// Handler 自定义域名接口
type Handler struct {
	svc *customdomain.Service
}

// NewHandler creates a new custom domain handler
func NewHandler(svc *customdomain.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) toDTO(d *model.CustomDomain) DomainDTO {
	return DomainDTO{
		CustomDomain: *d,
		VerifyRecord: customdomain.VerifyPrefix + d.Domain,
		CNAMETarget:  h.svc.CNAMETarget(),
	}
}

func domainID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid id"))
		return 0, false
	}
	return id, true
}

// List GET /api/v1/domains
func (h *Handler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), middleware.CompanyID(c))
	if err != nil {
		httpx.FailError(c, err)
		return
	}

	out := make([]DomainDTO, 0, len(items))
	for i := range items {
		out = append(out, h.toDTO(&items[i]))
	}
	httpx.OK(c, gin.H{"items": out})
}

// Create POST /api/v1/domains
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body: "+err.Error()))
		return
	}

	d, err := h.svc.Create(c.Request.Context(), middleware.CompanyID(c), req.Domain)
	if err != nil {
		httpx.FailError(c, err)
		return
	}
	httpx.OK(c, h.toDTO(d))
}

type domainOp func(c *gin.Context, companyID, id int) (*model.CustomDomain, error)

func (h *Handler) run(c *gin.Context, op domainOp) {
	id, ok := domainID(c)
	if !ok {
		return
	}
	d, err := op(c, middleware.CompanyID(c), id)
	if err != nil {
		httpx.FailError(c, err)
		return
	}
	httpx.OK(c, h.toDTO(d))
}

// SetPrimary POST /api/v1/domains/:id/primary
func (h *Handler) SetPrimary(c *gin.Context) {
	h.run(c, func(c *gin.Context, companyID, id int) (*model.CustomDomain, error) {
		return h.svc.SetPrimary(c.Request.Context(), companyID, id)
	})
}

// Verify POST /api/v1/domains/:id/verify
func (h *Handler) Verify(c *gin.Context) {
	h.run(c, func(c *gin.Context, companyID, id int) (*model.CustomDomain, error) {
		return h.svc.Verify(c.Request.Context(), companyID, id)
	})
}

// Check POST /api/v1/domains/:id/check
// 立即执行一次激活检查（CNAME + 证书），不等 worker
func (h *Handler) Check(c *gin.Context) {
	h.run(c, func(c *gin.Context, companyID, id int) (*model.CustomDomain, error) {
		return h.svc.CheckActivation(c.Request.Context(), companyID, id)
	})
}

// Disable POST /api/v1/domains/:id/disable
func (h *Handler) Disable(c *gin.Context) {
	h.run(c, func(c *gin.Context, companyID, id int) (*model.CustomDomain, error) {
		return h.svc.Disable(c.Request.Context(), companyID, id)
	})
}

// Delete DELETE /api/v1/domains/:id
func (h *Handler) Delete(c *gin.Context) {
	id, ok := domainID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.CompanyID(c), id); err != nil {
		httpx.FailError(c, err)
		return
	}
	httpx.OKMsg(c, "deleted", gin.H{"id": id})
}
