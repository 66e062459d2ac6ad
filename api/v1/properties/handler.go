package properties

import (
	"strconv"

	"go_sitebuilder/internal/httpx"
	"go_sitebuilder/internal/model"
	"go_sitebuilder/internal/property"

	"github.com/gin-gonic/gin"
)

// ListRequest 房源列表查询参数
type ListRequest struct {
	Status   string  `form:"status"`
	Purpose  string  `form:"purpose"`
	Type     string  `form:"type"`
	City     string  `form:"city"`
	Featured *bool   `form:"featured"`
	MinPrice float64 `form:"minPrice"`
	MaxPrice float64 `form:"maxPrice"`
	Page     int     `form:"page"`
	PageSize int     `form:"pageSize"`
}

// Handler 公开房源接口，供 storefront 渲染使用
type Handler struct {
	svc property.Service
}

// NewHandler creates a new properties handler
func NewHandler(svc property.Service) *Handler {
	return &Handler{svc: svc}
}

// List GET /api/v1/public/companies/:id/properties
func (h *Handler) List(c *gin.Context) {
	companyID, err := strconv.Atoi(c.Param("id"))
	if err != nil || companyID <= 0 {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid company id"))
		return
	}
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid query: "+err.Error()))
		return
	}

	f := property.Filter{
		CompanyID: companyID,
		Status:    model.PropertyStatus(req.Status),
		Purpose:   req.Purpose,
		Type:      req.Type,
		City:      req.City,
		Featured:  req.Featured,
		MinPrice:  req.MinPrice,
		MaxPrice:  req.MaxPrice,
		Page:      req.Page,
		PageSize:  req.PageSize,
	}
	items, total, err := h.svc.FindAll(c.Request.Context(), f)
	if err != nil {
		httpx.FailError(c, err)
		return
	}

	page, pageSize := f.Page, f.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 12
	}
	if pageSize > 100 {
		pageSize = 100
	}
	httpx.OKItems(c, items, total, page, pageSize)
}

// Get GET /api/v1/public/companies/:id/properties/:propertyId
func (h *Handler) Get(c *gin.Context) {
	companyID, err := strconv.Atoi(c.Param("id"))
	if err != nil || companyID <= 0 {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid company id"))
		return
	}
	id, err := strconv.Atoi(c.Param("propertyId"))
	if err != nil || id <= 0 {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid property id"))
		return
	}

	p, err := h.svc.FindByID(c.Request.Context(), companyID, id)
	if err != nil {
		httpx.FailError(c, err)
		return
	}
	httpx.OK(c, p)
}
