// Package siteloader caches site configurations per domain for the
// storefront. Concurrent loads of one domain share a single fetch.
package siteloader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go_sitebuilder/internal/domainutil"
	"go_sitebuilder/internal/siteconfig"
	"go_sitebuilder/internal/siteerr"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// State 一个域名的加载状态
type State string

const (
	StateUnknown State = ""        // 从未加载或已清除
	StatePending State = "pending" // 请求进行中
	StateLoaded  State = "loaded"
	StateError   State = "error"
)

// Fetcher 获取站点配置
type Fetcher interface {
	FetchSiteConfig(ctx context.Context, domain string) (*siteconfig.SiteConfiguration, error)
}

// Status 对外可见的状态快照
type Status struct {
	State    State
	Config   *siteconfig.SiteConfiguration // 仅 loaded
	Err      error                         // 仅 error
	LoadedAt time.Time
}

type entry struct {
	status   Status
	inflight int // 进行中的 fetch 数
}

// Options loader 选项
type Options struct {
	TTL     time.Duration // 0 表示进程生命周期内有效
	Timeout time.Duration // 单次 fetch 超时，0 不限制
	Now     func() time.Time
	Logger  *logrus.Entry
}

// Loader 按域名缓存配置
// 成功结果写入一次后只读；失败不缓存，下次 Load 重新请求
type Loader struct {
	fetcher Fetcher
	group   singleflight.Group
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time
	log     *logrus.Entry

	mu      sync.Mutex
	entries map[string]*entry
	gens    map[string]uint64 // ClearCache 后递增
	epoch   uint64            // 全量清除后递增
}

// New 创建 loader
func New(fetcher Fetcher, opts Options) *Loader {
	l := &Loader{
		fetcher: fetcher,
		ttl:     opts.TTL,
		timeout: opts.Timeout,
		now:     opts.Now,
		log:     opts.Logger,
		entries: make(map[string]*entry),
		gens:    make(map[string]uint64),
	}
	if l.now == nil {
		l.now = time.Now
	}
	if l.log == nil {
		l.log = logrus.NewEntry(logrus.StandardLogger())
	}
	l.log = l.log.WithField("component", "site-loader")
	return l
}

type result struct {
	cfg *siteconfig.SiteConfiguration
	err error
}

// Load 返回域名的配置；缓存命中直接返回，否则与同域名的其他调用共享一次 fetch
// ctx 取消只影响当前调用者，不中断共享的 fetch
func (l *Loader) Load(ctx context.Context, domain string) (*siteconfig.SiteConfiguration, error) {
	key := domainutil.NormalizeHost(domain)
	if key == "" {
		return nil, siteerr.New(siteerr.KindTenantNotFound, "domain is required")
	}

	l.mu.Lock()
	if cfg, ok := l.cachedLocked(key); ok {
		l.mu.Unlock()
		return cfg, nil
	}
	gen, epoch := l.gens[key], l.epoch
	l.mu.Unlock()

	// flight key 含代数：清除后的新调用不会并入旧的 fetch
	flight := fmt.Sprintf("%s#%d#%d", key, epoch, gen)
	ch := l.group.DoChan(flight, func() (interface{}, error) {
		cfg, err := l.fetch(context.WithoutCancel(ctx), key, gen, epoch)
		return result{cfg: cfg, err: err}, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		res := r.Val.(result)
		return res.cfg, res.err
	}
}

func (l *Loader) fetch(ctx context.Context, key string, gen, epoch uint64) (*siteconfig.SiteConfiguration, error) {
	l.mu.Lock()
	// 调用者查缓存和进入 flight 之间，上一次 fetch 可能已写入缓存
	if l.gens[key] == gen && l.epoch == epoch {
		if cfg, ok := l.cachedLocked(key); ok {
			l.mu.Unlock()
			return cfg, nil
		}
	}
	e := l.entryLocked(key)
	e.inflight++
	l.mu.Unlock()

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	cfg, err := l.fetcher.FetchSiteConfig(ctx, key)
	if err == nil && cfg == nil {
		err = siteerr.New(siteerr.KindConfigLoadFailed, "empty site configuration")
	}
	if err != nil && siteerr.KindOf(err) == "" {
		err = siteerr.Wrap(siteerr.KindConfigLoadFailed, "failed to load site configuration", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	e = l.entryLocked(key)
	e.inflight--

	// 期间被清除：结果只返回给本次等待者，不写缓存
	if l.gens[key] != gen || l.epoch != epoch {
		return cfg, err
	}
	if err != nil {
		e.status = Status{State: StateError, Err: err}
		l.log.WithError(err).WithField("domain", key).Warn("site configuration load failed")
		return nil, err
	}
	e.status = Status{State: StateLoaded, Config: cfg, LoadedAt: l.now()}
	return cfg, nil
}

func (l *Loader) entryLocked(key string) *entry {
	e, ok := l.entries[key]
	if !ok {
		e = &entry{}
		l.entries[key] = e
	}
	return e
}

func (l *Loader) cachedLocked(key string) (*siteconfig.SiteConfiguration, bool) {
	e, ok := l.entries[key]
	if !ok || e.status.State != StateLoaded {
		return nil, false
	}
	if l.ttl > 0 && l.now().Sub(e.status.LoadedAt) >= l.ttl {
		return nil, false
	}
	return e.status.Config, true
}

// State 返回域名当前状态
// 有 fetch 进行中时为 pending，即使之前有过错误
func (l *Loader) State(domain string) Status {
	key := domainutil.NormalizeHost(domain)
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		return Status{State: StateUnknown}
	}
	if e.inflight > 0 {
		if _, fresh := l.cachedLocked(key); !fresh {
			return Status{State: StatePending}
		}
	}
	if e.status.State == StateLoaded && l.ttl > 0 && l.now().Sub(e.status.LoadedAt) >= l.ttl {
		return Status{State: StateUnknown}
	}
	return e.status
}

// ClearCache 清除指定域名，不传参数时清除全部
// 进行中的 fetch 继续完成并返回给其等待者，但不会写回缓存
func (l *Loader) ClearCache(domains ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(domains) == 0 {
		l.epoch++
		for key, e := range l.entries {
			if e.inflight == 0 {
				delete(l.entries, key)
				continue
			}
			e.status = Status{}
		}
		l.log.Info("site configuration cache cleared")
		return
	}
	for _, d := range domains {
		key := domainutil.NormalizeHost(d)
		l.gens[key]++
		if e, ok := l.entries[key]; ok {
			if e.inflight == 0 {
				delete(l.entries, key)
			} else {
				e.status = Status{}
			}
		}
		l.log.WithField("domain", key).Info("site configuration cache cleared")
	}
}
