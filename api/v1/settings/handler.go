package settings

import (
	"go_sitebuilder/api/v1/middleware"
	"go_sitebuilder/internal/httpx"
	"go_sitebuilder/internal/settings"

	"github.com/gin-gonic/gin"
)

// Handler 公司设置接口
type Handler struct {
	store *settings.Store
}

// NewHandler creates a new settings handler
func NewHandler(store *settings.Store) *Handler {
	return &Handler{store: store}
}

// Get GET /api/v1/settings
func (h *Handler) Get(c *gin.Context) {
	s, err := h.store.Get(c.Request.Context(), middleware.CompanyID(c))
	if err != nil {
		httpx.FailError(c, err)
		return
	}
	httpx.OK(c, s)
}

// Put PUT /api/v1/settings
// body 为 merge patch，null 删除对应键
func (h *Handler) Put(c *gin.Context) {
	var patch map[string]interface{}
	if err := c.ShouldBindJSON(&patch); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	s, err := h.store.Put(c.Request.Context(), middleware.CompanyID(c), patch)
	if err != nil {
		httpx.FailError(c, err)
		return
	}
	httpx.OK(c, s)
}
