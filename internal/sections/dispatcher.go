// Package sections maps each section's component type to a renderer and
// renders a page's sections, skipping the ones it cannot render.
package sections

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go_sitebuilder/internal/siteconfig"

	"github.com/sirupsen/logrus"
)

// Site 渲染器共享的租户上下文
type Site struct {
	Company siteconfig.CompanyInfo
	Visual  siteconfig.VisualConfig
	Domain  string
	Pages   []siteconfig.Page // 导航
	Params  map[string]string // 路径参数，例如 :id
	Path    string
}

// Input 渲染器的三个输入
type Input struct {
	Config Props
	Style  Props
	Site   *Site
}

// Renderer 一种区块类型的渲染能力
type Renderer interface {
	Render(ctx context.Context, in Input) (interface{}, error)
}

// RendererFunc 函数适配器
type RendererFunc func(ctx context.Context, in Input) (interface{}, error)

// Render implements Renderer
func (f RendererFunc) Render(ctx context.Context, in Input) (interface{}, error) {
	return f(ctx, in)
}

// Rendered 一个已渲染的区块；Style 是容器统一样式
type Rendered struct {
	ID    int               `json:"id"`
	Type  string            `json:"type"`
	Order int               `json:"order"`
	Style map[string]string `json:"style"`
	Props interface{}       `json:"props"`
}

// Dispatcher 区块类型注册表，启动时注册，之后只读
type Dispatcher struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
	log       *logrus.Entry
}

// NewDispatcher 创建空注册表
func NewDispatcher(log *logrus.Entry) *Dispatcher {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Dispatcher{
		renderers: make(map[string]Renderer),
		log:       log.WithField("component", "section-dispatcher"),
	}
}

// Register 注册或替换一种类型
func (d *Dispatcher) Register(componentType string, r Renderer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.renderers[componentType] = r
}

// Types 已注册类型
func (d *Dispatcher) Types() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.renderers))
	for t := range d.renderers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (d *Dispatcher) lookup(componentType string) (Renderer, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.renderers[componentType]
	return r, ok
}

// Render 渲染一个区块；未知类型或渲染失败返回 false，由调用方跳过
func (d *Dispatcher) Render(ctx context.Context, sec siteconfig.Section, site *Site) (*Rendered, bool) {
	log := d.log.WithFields(logrus.Fields{"section_id": sec.ID, "type": sec.Type})

	r, ok := d.lookup(sec.Type)
	if !ok {
		log.Warn("unknown section type, skipped")
		return nil, false
	}

	style := Props(sec.StyleConfig)
	if style == nil {
		style = Props{}
	}
	config := Props(sec.Config)
	if config == nil {
		config = Props{}
	}
	if site == nil {
		site = &Site{}
	}

	props, err := safeRender(ctx, r, Input{Config: config, Style: style, Site: site})
	if err != nil {
		log.WithError(err).Warn("section render failed, skipped")
		return nil, false
	}

	return &Rendered{
		ID:    sec.ID,
		Type:  sec.Type,
		Order: sec.Order,
		Style: ContainerStyle(style),
		Props: props,
	}, true
}

// RenderAll 按给定顺序渲染，失败的区块不影响其他区块
func (d *Dispatcher) RenderAll(ctx context.Context, secs []siteconfig.Section, site *Site) []Rendered {
	out := make([]Rendered, 0, len(secs))
	for _, sec := range secs {
		if r, ok := d.Render(ctx, sec, site); ok {
			out = append(out, *r)
		}
	}
	return out
}

func safeRender(ctx context.Context, r Renderer, in Input) (props interface{}, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("renderer panic: %v", p)
		}
	}()
	return r.Render(ctx, in)
}

// 容器样式键 → CSS 属性
var styleKeys = []struct {
	key, css string
	length   bool
}{
	{"backgroundColor", "background-color", false},
	{"textColor", "color", false},
	{"padding", "padding", true},
	{"margin", "margin", true},
	{"borderRadius", "border-radius", true},
}

// ContainerStyle 把 styleConfig 的通用键转换为容器 CSS，渲染器不需要关心
func ContainerStyle(style Props) map[string]string {
	out := make(map[string]string)
	for _, k := range styleKeys {
		v, ok := style[k.key]
		if !ok || v == nil {
			continue
		}
		if k.length {
			if s, ok := cssLength(v); ok {
				out[k.css] = s
			}
			continue
		}
		if s := style.String(k.key, ""); s != "" {
			out[k.css] = s
		}
	}
	return out
}
