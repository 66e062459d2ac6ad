package domainutil

import (
	"fmt"
	"net"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// NormalizeHost 规范化请求 Host（允许 IP 与端口，用于租户解析）
// 规则：小写、trim 空格、去掉端口、去掉末尾 .、去掉 IPv6 方括号
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))

	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	host = strings.TrimSuffix(host, ".")

	return host
}

// Normalize 对自定义域名进行规范化处理
// 规则：
//   - 小写
//   - trim 空格
//   - 去掉末尾 .
//   - 去掉端口（如 example.com:443）
//   - 拒绝 IP（IPv4/IPv6）
//   - 拒绝通配符、空字符串、非法字符
func Normalize(host string) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", fmt.Errorf("domain must not be empty")
	}

	host = strings.ToLower(host)
	host = strings.TrimSuffix(host, ".")

	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	if host == "" {
		return "", fmt.Errorf("domain must not be empty after normalization")
	}

	if net.ParseIP(host) != nil {
		return "", fmt.Errorf("IP address is not allowed as domain: %s", host)
	}
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		if net.ParseIP(host[1:len(host)-1]) != nil {
			return "", fmt.Errorf("IP address is not allowed as domain: %s", host)
		}
	}

	// 只允许 a-z 0-9 . -
	for _, r := range host {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' || r == '-') {
			return "", fmt.Errorf("domain contains invalid character: %c in %s", r, host)
		}
	}

	if strings.HasPrefix(host, ".") || strings.HasPrefix(host, "-") {
		return "", fmt.Errorf("domain must not start with '.' or '-': %s", host)
	}
	if strings.Contains(host, "..") {
		return "", fmt.Errorf("domain must not contain empty labels: %s", host)
	}
	if !strings.Contains(host, ".") {
		return "", fmt.Errorf("domain must contain at least one dot: %s", host)
	}

	return host, nil
}

// EffectiveApex 使用 PSL 计算 eTLD+1（注册域名）
// 例如：
//   - www.example.com -> example.com
//   - www.imobiliaria.com.br -> imobiliaria.com.br
//   - example.com -> example.com
func EffectiveApex(domain string) (string, error) {
	normalized, err := Normalize(domain)
	if err != nil {
		return "", fmt.Errorf("normalize failed for %s: %w", domain, err)
	}

	apex, err := publicsuffix.EffectiveTLDPlusOne(normalized)
	if err != nil {
		return "", fmt.Errorf("PSL lookup failed for %s: %w", domain, err)
	}

	return apex, nil
}

// SplitSubdomain 拆分为子域名部分与注册域名
//   - www.imobiliaria.com.br -> ("www", "imobiliaria.com.br")
//   - imobiliaria.com.br -> ("", "imobiliaria.com.br")
func SplitSubdomain(domain string) (subdomain, apex string, err error) {
	normalized, err := Normalize(domain)
	if err != nil {
		return "", "", err
	}
	apex, err = EffectiveApex(normalized)
	if err != nil {
		return "", "", err
	}
	if normalized == apex {
		return "", apex, nil
	}
	return strings.TrimSuffix(normalized, "."+apex), apex, nil
}
