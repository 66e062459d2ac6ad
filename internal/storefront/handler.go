// Package storefront serves the public site of every tenant: it loads the
// configuration for the request host, resolves the page and renders its
// sections into a JSON render tree.
package storefront

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"go_sitebuilder/internal/httpx"
	"go_sitebuilder/internal/pageresolver"
	"go_sitebuilder/internal/sections"
	"go_sitebuilder/internal/siteconfig"
	"go_sitebuilder/internal/siteerr"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// 整页状态
const (
	StateSiteNotFound    = "site-not-found"
	StateSiteUnavailable = "site-unavailable"
	StateError           = "error"
)

// AdminTokenHeader 清缓存接口的鉴权头
const AdminTokenHeader = "X-Admin-Token"

// Loader 配置缓存
type Loader interface {
	Load(ctx context.Context, domain string) (*siteconfig.SiteConfiguration, error)
	ClearCache(domains ...string)
}

// PageInfo 页面信息
type PageInfo struct {
	Slug     string              `json:"slug"`
	Name     string              `json:"name"`
	PageType string              `json:"pageType"`
	Meta     siteconfig.PageMeta `json:"meta"`
}

// View 渲染树
type View struct {
	Domain   string                 `json:"domain"`
	Company  siteconfig.CompanyInfo `json:"company"`
	Page     *PageInfo              `json:"page,omitempty"`
	Params   map[string]string      `json:"params"`
	Theme    siteconfig.Theme       `json:"theme"`
	Sections []sections.Rendered    `json:"sections"`
	Floating []sections.Rendered    `json:"floating,omitempty"`
	NotFound bool                   `json:"notFound,omitempty"`
}

// ErrorView 站点级错误整页
type ErrorView struct {
	State  string `json:"state"`
	Error  string `json:"error"`
	Domain string `json:"domain"`
}

// Handler storefront 入口
type Handler struct {
	loader     Loader
	resolver   *pageresolver.Resolver
	dispatcher *sections.Dispatcher
	adminToken string
	log        *logrus.Entry
}

// NewHandler 创建 handler
func NewHandler(loader Loader, dispatcher *sections.Dispatcher, adminToken string, log *logrus.Entry) *Handler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Handler{
		loader:     loader,
		resolver:   pageresolver.New(),
		dispatcher: dispatcher,
		adminToken: adminToken,
		log:        log.WithField("component", "storefront"),
	}
}

// Register 注册路由；其余 GET 请求都按页面处理
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/_storefront/health", func(c *gin.Context) {
		httpx.OK(c, gin.H{"ok": true})
	})
	r.POST("/_storefront/cache/clear", h.ClearCache)
	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			httpx.FailErr(c, httpx.NewAppError(http.StatusMethodNotAllowed, httpx.CodeParamIllegal, "method not allowed", nil))
			return
		}
		h.Render(c)
	})
}

func requestDomain(c *gin.Context) string {
	if d := strings.TrimSpace(c.Query("domain")); d != "" {
		return d
	}
	return c.Request.Host
}

// Render 渲染当前请求路径
func (h *Handler) Render(c *gin.Context) {
	ctx := c.Request.Context()
	domain := requestDomain(c)

	// 配置加载完成前不渲染任何内容
	cfg, err := h.loader.Load(ctx, domain)
	if err != nil {
		h.renderSiteError(c, domain, err)
		return
	}

	resolved, err := h.resolver.Resolve(cfg, c.Request.URL.Path)
	if errors.Is(err, siteerr.ErrPageNotFound) {
		h.renderNotFound(c, cfg)
		return
	}
	if err != nil {
		h.renderSiteError(c, domain, err)
		return
	}

	site := siteContext(cfg, resolved.Params, c.Request.URL.Path)
	view := View{
		Domain:  cfg.Domain,
		Company: cfg.Company,
		Page: &PageInfo{
			Slug:     resolved.Page.Slug,
			Name:     resolved.Page.Name,
			PageType: resolved.Page.PageType,
			Meta:     resolved.Page.Meta,
		},
		Params:   resolved.Params,
		Theme:    cfg.VisualConfig.Theme,
		Sections: h.dispatcher.RenderAll(ctx, resolved.Page.Components, site),
	}
	view.Floating = h.floating(ctx, resolved.Page.Components, cfg, site)
	c.JSON(http.StatusOK, view)
}

// renderNotFound 页面级 404，保留首页的页眉页脚
func (h *Handler) renderNotFound(c *gin.Context, cfg *siteconfig.SiteConfiguration) {
	ctx := c.Request.Context()
	site := siteContext(cfg, nil, c.Request.URL.Path)

	var chrome []siteconfig.Section
	if home, ok := pageresolver.FindByType(cfg, "home"); ok {
		for _, sec := range pageresolver.SortedComponents(home.Components) {
			if sec.Type == "header" || sec.Type == "footer" {
				chrome = append(chrome, sec)
			}
		}
	}

	c.JSON(http.StatusNotFound, View{
		Domain:   cfg.Domain,
		Company:  cfg.Company,
		Params:   map[string]string{},
		Theme:    cfg.VisualConfig.Theme,
		Sections: h.dispatcher.RenderAll(ctx, chrome, site),
		NotFound: true,
	})
}

// floating 站点开启 WhatsApp 悬浮按钮且页面没有放置时补一个
func (h *Handler) floating(ctx context.Context, secs []siteconfig.Section, cfg *siteconfig.SiteConfiguration, site *sections.Site) []sections.Rendered {
	if !cfg.VisualConfig.Layout.ShowWhatsappButton {
		return nil
	}
	for _, sec := range secs {
		if sec.Type == "whatsapp-button" {
			return nil
		}
	}
	r, ok := h.dispatcher.Render(ctx, siteconfig.Section{Type: "whatsapp-button"}, site)
	if !ok {
		return nil
	}
	return []sections.Rendered{*r}
}

func (h *Handler) renderSiteError(c *gin.Context, domain string, err error) {
	view := ErrorView{Error: err.Error(), Domain: domain}
	status := http.StatusBadGateway

	switch siteerr.KindOf(err) {
	case siteerr.KindTenantNotFound:
		view.State, status = StateSiteNotFound, http.StatusNotFound
	case siteerr.KindWebsiteDisabled:
		view.State, status = StateSiteUnavailable, http.StatusForbidden
	default:
		view.State = StateError
		h.log.WithError(err).WithField("domain", domain).Error("site configuration unavailable")
	}
	c.JSON(status, view)
}

func siteContext(cfg *siteconfig.SiteConfiguration, params map[string]string, path string) *sections.Site {
	if params == nil {
		params = map[string]string{}
	}
	return &sections.Site{
		Company: cfg.Company,
		Visual:  cfg.VisualConfig,
		Domain:  cfg.Domain,
		Pages:   cfg.Pages,
		Params:  params,
		Path:    path,
	}
}

// ClearCache POST /_storefront/cache/clear?domain=a.com,b.com
// 不带 domain 时清空全部
func (h *Handler) ClearCache(c *gin.Context) {
	if h.adminToken == "" {
		httpx.FailErr(c, httpx.ErrForbidden("cache invalidation is disabled"))
		return
	}
	token := c.GetHeader(AdminTokenHeader)
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
		httpx.FailErr(c, httpx.ErrUnauthorized("invalid admin token"))
		return
	}

	var domains []string
	for _, d := range strings.Split(c.Query("domain"), ",") {
		if d = strings.TrimSpace(d); d != "" {
			domains = append(domains, d)
		}
	}
	h.loader.ClearCache(domains...)
	h.log.WithField("domains", domains).Info("cache cleared")
	httpx.OKMsg(c, "cache cleared", gin.H{"domains": domains})
}
