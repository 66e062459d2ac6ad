package customdomain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// ErrNoRecord 没有对应类型的记录
var ErrNoRecord = errors.New("no such record")

// Resolver DNS 查询
type Resolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
	LookupCNAME(ctx context.Context, name string) (string, error)
}

// DNSResolver 直接向指定递归服务器查询，不经过本机缓存
type DNSResolver struct {
	servers []string
	client  *dns.Client
}

// NewDNSResolver 创建 resolver，servers 形如 8.8.8.8:53
func NewDNSResolver(servers []string, timeout time.Duration) *DNSResolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &DNSResolver{
		servers: servers,
		client:  &dns.Client{Timeout: timeout},
	}
}

// LookupTXT 返回所有 TXT 值（多段字符串拼接）
func (r *DNSResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	answers, err := r.query(ctx, name, dns.TypeTXT)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, rr := range answers {
		if txt, ok := rr.(*dns.TXT); ok {
			out = append(out, strings.Join(txt.Txt, ""))
		}
	}
	if len(out) == 0 {
		return nil, ErrNoRecord
	}
	return out, nil
}

// LookupCNAME 返回 CNAME 目标（去掉末尾 .）
func (r *DNSResolver) LookupCNAME(ctx context.Context, name string) (string, error) {
	answers, err := r.query(ctx, name, dns.TypeCNAME)
	if err != nil {
		return "", err
	}
	for _, rr := range answers {
		if cname, ok := rr.(*dns.CNAME); ok {
			return strings.TrimSuffix(strings.ToLower(cname.Target), "."), nil
		}
	}
	return "", ErrNoRecord
}

func (r *DNSResolver) query(ctx context.Context, name string, qtype uint16) ([]dns.RR, error) {
	if len(r.servers) == 0 {
		return nil, errors.New("no DNS servers configured")
	}

	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), qtype)
	m.RecursionDesired = true

	var lastErr error
	for _, server := range r.servers {
		resp, _, err := r.client.ExchangeContext(ctx, m, server)
		if err != nil {
			lastErr = fmt.Errorf("query %s via %s: %w", name, server, err)
			continue
		}
		switch resp.Rcode {
		case dns.RcodeSuccess:
			return resp.Answer, nil
		case dns.RcodeNameError:
			return nil, ErrNoRecord
		default:
			lastErr = fmt.Errorf("query %s via %s: %s", name, server, dns.RcodeToString[resp.Rcode])
		}
	}
	return nil, lastErr
}
