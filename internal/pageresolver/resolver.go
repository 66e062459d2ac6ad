// Package pageresolver picks the page of a site configuration that serves a
// request path, and hands back its sections in render order.
package pageresolver

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go_sitebuilder/internal/siteconfig"
	"go_sitebuilder/internal/siteerr"
)

// MatchKind 页面匹配方式
type MatchKind string

const (
	MatchExact    MatchKind = "exact"
	MatchParam    MatchKind = "param"
	MatchFallback MatchKind = "fallback" // 回落到 "/"
)

// Resolved 解析结果；Page.Components 是按 order 排好序的副本
type Resolved struct {
	Page   siteconfig.Page
	Params map[string]string
	Match  MatchKind
}

type pattern struct {
	re    *regexp.Regexp
	names []string
}

// Resolver 缓存已编译的参数化 slug
type Resolver struct {
	patterns sync.Map // slug → *pattern
}

// New 创建 resolver
func New() *Resolver {
	return &Resolver{}
}

var defaultResolver = New()

// ResolvePage 使用默认 resolver
func ResolvePage(cfg *siteconfig.SiteConfiguration, path string) (*Resolved, error) {
	return defaultResolver.Resolve(cfg, path)
}

// NormalizePath 去掉 query/fragment 和末尾斜杠
func NormalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if path == "" {
		path = "/"
	}
	return path
}

// Resolve 匹配顺序：精确 → 参数化 → "/" → PageNotFound
func (r *Resolver) Resolve(cfg *siteconfig.SiteConfiguration, path string) (*Resolved, error) {
	if cfg == nil {
		return nil, siteerr.New(siteerr.KindPageNotFound, "no site configuration")
	}
	path = NormalizePath(path)

	for i := range cfg.Pages {
		if NormalizePath(cfg.Pages[i].Slug) == path {
			return resolved(cfg.Pages[i], nil, MatchExact), nil
		}
	}

	for i := range cfg.Pages {
		slug := NormalizePath(cfg.Pages[i].Slug)
		if !strings.Contains(slug, ":") {
			continue
		}
		if params, ok := r.compile(slug).match(path); ok {
			return resolved(cfg.Pages[i], params, MatchParam), nil
		}
	}

	for i := range cfg.Pages {
		if NormalizePath(cfg.Pages[i].Slug) == "/" {
			return resolved(cfg.Pages[i], nil, MatchFallback), nil
		}
	}

	return nil, siteerr.New(siteerr.KindPageNotFound, fmt.Sprintf("no page matches %s", path))
}

func (r *Resolver) compile(slug string) *pattern {
	if p, ok := r.patterns.Load(slug); ok {
		return p.(*pattern)
	}

	var b strings.Builder
	var names []string
	b.WriteString("^")
	for _, seg := range strings.Split(strings.TrimPrefix(slug, "/"), "/") {
		b.WriteString("/")
		if strings.HasPrefix(seg, ":") && len(seg) > 1 {
			names = append(names, seg[1:])
			b.WriteString("([^/]+)")
			continue
		}
		b.WriteString(regexp.QuoteMeta(seg))
	}
	b.WriteString("$")

	p := &pattern{re: regexp.MustCompile(b.String()), names: names}
	actual, _ := r.patterns.LoadOrStore(slug, p)
	return actual.(*pattern)
}

func (p *pattern) match(path string) (map[string]string, bool) {
	m := p.re.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	params := make(map[string]string, len(p.names))
	for i, name := range p.names {
		params[name] = m[i+1]
	}
	return params, true
}

// resolved 复制页面并排序区块，缓存中的配置保持不变
func resolved(page siteconfig.Page, params map[string]string, kind MatchKind) *Resolved {
	page.Components = SortedComponents(page.Components)
	if params == nil {
		params = map[string]string{}
	}
	return &Resolved{Page: page, Params: params, Match: kind}
}

// SortedComponents 按 order 升序返回副本，order 相同时保持原顺序
func SortedComponents(in []siteconfig.Section) []siteconfig.Section {
	out := make([]siteconfig.Section, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

// FindByType 按页面类型查找页面，用于取首页的页眉页脚
func FindByType(cfg *siteconfig.SiteConfiguration, pageType string) (siteconfig.Page, bool) {
	if cfg == nil {
		return siteconfig.Page{}, false
	}
	for _, p := range cfg.Pages {
		if p.PageType == pageType {
			return p, true
		}
	}
	return siteconfig.Page{}, false
}
