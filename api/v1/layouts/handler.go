package layouts

import (
	"strconv"

	"go_sitebuilder/api/v1/middleware"
	"go_sitebuilder/internal/httpx"
	"go_sitebuilder/internal/layout"
	"go_sitebuilder/internal/model"

	"github.com/gin-gonic/gin"
)

// Handler 布局管理接口
type Handler struct {
	store *layout.Store
}

// NewHandler creates a new layouts handler
func NewHandler(store *layout.Store) *Handler {
	return &Handler{store: store}
}

// AddSectionRequest 新增区块，position 为空时追加到末尾
type AddSectionRequest struct {
	layout.SectionInput
	Position *int `json:"position"`
}

// ReorderRequest 完整的区块 id 顺序
type ReorderRequest struct {
	SectionIDs []int `json:"sectionIds" binding:"required"`
}

func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid "+name))
		return 0, false
	}
	return id, true
}

// List GET /api/v1/layouts?pageType=
func (h *Handler) List(c *gin.Context) {
	pageType := model.PageType(c.Query("pageType"))
	if pageType != "" && !pageType.Valid() {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid pageType"))
		return
	}

	items, err := h.store.List(c.Request.Context(), middleware.CompanyID(c), pageType)
	if err != nil {
		httpx.FailError(c, err)
		return
	}
	httpx.OK(c, gin.H{"items": items})
}

// Get GET /api/v1/layouts/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	l, err := h.store.Get(c.Request.Context(), middleware.CompanyID(c), id)
	if err != nil {
		httpx.FailError(c, err)
		return
	}
	httpx.OK(c, l)
}

// Create POST /api/v1/layouts
func (h *Handler) Create(c *gin.Context) {
	var req layout.LayoutInput
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body: "+err.Error()))
		return
	}

	l, err := h.store.Create(c.Request.Context(), middleware.CompanyID(c), req)
	if err != nil {
		httpx.FailError(c, err)
		return
	}
	httpx.OK(c, l)
}

// Update PUT /api/v1/layouts/:id
func (h *Handler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req layout.LayoutPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body: "+err.Error()))
		return
	}

	l, err := h.store.Update(c.Request.Context(), middleware.CompanyID(c), id, req)
	if err != nil {
		httpx.FailError(c, err)
		return
	}
	httpx.OK(c, l)
}

// Delete DELETE /api/v1/layouts/:id
func (h *Handler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.store.Delete(c.Request.Context(), middleware.CompanyID(c), id); err != nil {
		httpx.FailError(c, err)
		return
	}
	httpx.OKMsg(c, "deleted", gin.H{"id": id})
}

// Publish POST /api/v1/layouts/:id/publish
func (h *Handler) Publish(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	l, err := h.store.Publish(c.Request.Context(), middleware.CompanyID(c), id)
	if err != nil {
		httpx.FailError(c, err)
		return
	}
	httpx.OKMsg(c, "published", l)
}

// AddSection POST /api/v1/layouts/:id/sections
func (h *Handler) AddSection(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req AddSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body: "+err.Error()))
		return
	}

	sec, err := h.store.AddSection(c.Request.Context(), middleware.CompanyID(c), id, req.SectionInput, req.Position)
	if err != nil {
		httpx.FailError(c, err)
		return
	}
	httpx.OK(c, sec)
}

// UpdateSection PUT /api/v1/layouts/:id/sections/:sectionId
func (h *Handler) UpdateSection(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sectionID, ok := pathID(c, "sectionId")
	if !ok {
		return
	}
	var req layout.SectionPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body: "+err.Error()))
		return
	}

	sec, err := h.store.UpdateSection(c.Request.Context(), middleware.CompanyID(c), id, sectionID, req)
	if err != nil {
		httpx.FailError(c, err)
		return
	}
	httpx.OK(c, sec)
}

// DeleteSection DELETE /api/v1/layouts/:id/sections/:sectionId
func (h *Handler) DeleteSection(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sectionID, ok := pathID(c, "sectionId")
	if !ok {
		return
	}

	if err := h.store.DeleteSection(c.Request.Context(), middleware.CompanyID(c), id, sectionID); err != nil {
		httpx.FailError(c, err)
		return
	}
	httpx.OKMsg(c, "deleted", gin.H{"id": sectionID})
}

// ReorderSections POST /api/v1/layouts/:id/sections/reorder
func (h *Handler) ReorderSections(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body: "+err.Error()))
		return
	}

	items, err := h.store.ReorderSections(c.Request.Context(), middleware.CompanyID(c), id, req.SectionIDs)
	if err != nil {
		httpx.FailError(c, err)
		return
	}
	httpx.OK(c, gin.H{"items": items})
}
