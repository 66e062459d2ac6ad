// Package siteclient is the storefront's HTTP client for the site API.
package siteclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go_sitebuilder/internal/model"
	"go_sitebuilder/internal/siteconfig"
	"go_sitebuilder/internal/siteerr"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// envelope 服务端统一响应
type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// PropertyQuery 房源列表查询
type PropertyQuery struct {
	Purpose  string
	Type     string
	City     string
	Featured *bool
	MinPrice float64
	MaxPrice float64
	Page     int
	PageSize int
}

// PropertyPage 房源分页结果
type PropertyPage struct {
	Items    []model.Property `json:"items"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}

// Client 站点 API 客户端
type Client struct {
	http *resty.Client
	log  *logrus.Entry
}

// New 创建客户端
func New(baseURL string, timeout time.Duration, log *logrus.Entry) *Client {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2). // 仅网络错误重试
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Accept", "application/json")
	return &Client{http: c, log: log.WithField("component", "site-client")}
}

// FetchSiteConfig 按域名获取站点配置
// 404 → TenantNotFound，403 → WebsiteDisabled，其余失败 → ConfigLoadFailed
func (c *Client) FetchSiteConfig(ctx context.Context, domain string) (*siteconfig.SiteConfiguration, error) {
	var cfg siteconfig.SiteConfiguration
	err := c.get(ctx, "/api/v1/site-config", map[string]string{"domain": domain}, &cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Pages == nil {
		cfg.Pages = []siteconfig.Page{}
	}
	return &cfg, nil
}

// ListProperties 获取公司房源列表
func (c *Client) ListProperties(ctx context.Context, companyID int, q PropertyQuery) (*PropertyPage, error) {
	params := map[string]string{}
	if q.Purpose != "" {
		params["purpose"] = q.Purpose
	}
	if q.Type != "" {
		params["type"] = q.Type
	}
	if q.City != "" {
		params["city"] = q.City
	}
	if q.Featured != nil {
		params["featured"] = strconv.FormatBool(*q.Featured)
	}
	if q.MinPrice > 0 {
		params["minPrice"] = strconv.FormatFloat(q.MinPrice, 'f', -1, 64)
	}
	if q.MaxPrice > 0 {
		params["maxPrice"] = strconv.FormatFloat(q.MaxPrice, 'f', -1, 64)
	}
	if q.Page > 0 {
		params["page"] = strconv.Itoa(q.Page)
	}
	if q.PageSize > 0 {
		params["pageSize"] = strconv.Itoa(q.PageSize)
	}

	var page PropertyPage
	path := fmt.Sprintf("/api/v1/public/companies/%d/properties", companyID)
	if err := c.get(ctx, path, params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetProperty 获取单个房源，404 时返回 nil, nil
func (c *Client) GetProperty(ctx context.Context, companyID, id int) (*model.Property, error) {
	var p model.Property
	path := fmt.Sprintf("/api/v1/public/companies/%d/properties/%d", companyID, id)
	err := c.get(ctx, path, nil, &p)
	if siteerr.KindOf(err) == siteerr.KindTenantNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, out interface{}) error {
	var env envelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&env).
		SetError(&env).
		Get(path)
	if err != nil {
		c.log.WithError(err).WithField("path", path).Warn("site api call failed")
		return siteerr.Wrap(siteerr.KindConfigLoadFailed, "site api unreachable", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNotFound:
		return siteerr.New(siteerr.KindTenantNotFound, messageOf(env, "not found"))
	case http.StatusForbidden:
		return siteerr.New(siteerr.KindWebsiteDisabled, messageOf(env, "website not enabled"))
	default:
		return siteerr.Wrap(siteerr.KindConfigLoadFailed, "site api error",
			fmt.Errorf("status %d: %s", resp.StatusCode(), messageOf(env, resp.Status())))
	}

	if !env.Success {
		return siteerr.Wrap(siteerr.KindConfigLoadFailed, "site api error", fmt.Errorf("%s", messageOf(env, "unsuccessful response")))
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return siteerr.Wrap(siteerr.KindConfigLoadFailed, "invalid site api response", err)
	}
	return nil
}

func messageOf(env envelope, fallback string) string {
	if env.Error != "" {
		return env.Error
	}
	if env.Message != "" {
		return env.Message
	}
	return fallback
}
