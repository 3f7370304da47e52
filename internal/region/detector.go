package region

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"Textbook_Browser/config"
)

// Detector 判定请求方属于国内还是海外，决定下载地址走 CDN/代理还是源站直连。
// 判定顺序：显式查询参数覆盖 → 按客户端 IP 的归属地查询（带重试与缓存）→
// 本机时区启发 → 配置的安全默认值（默认按国内处理，避免把国内用户引向不可达地址）。
// 探测失败永远不会上抛为用户可见错误，最多记一条警告。
type Detector struct {
	lookupURL       string
	defaultDomestic bool
	client          *http.Client

	mu    sync.RWMutex
	cache map[string]bool // 客户端 IP → 判定结果，进程生命周期内有效
}

// OverrideParam 是测试与调试用的显式覆盖参数。
const OverrideParam = "isChina"

// NewDetector 根据全局配置构造探测器。
func NewDetector() *Detector {
	cfg := config.C.Region
	return &Detector{
		lookupURL:       cfg.LookupURL,
		defaultDomestic: cfg.DefaultDomestic,
		client:          &http.Client{Timeout: cfg.Timeout},
		cache:           make(map[string]bool),
	}
}

// Override 检查请求是否携带显式地区覆盖（isChina=true|false）。
// 覆盖优先于一切网络探测，保证行为可复现。
func Override(r *http.Request) (isDomestic, ok bool) {
	switch strings.ToLower(r.URL.Query().Get(OverrideParam)) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	default:
		return false, false
	}
}

// IsDomestic 返回该请求的地区判定结果。
func (d *Detector) IsDomestic(ctx context.Context, r *http.Request) bool {
	if v, ok := Override(r); ok {
		return v
	}

	ip := clientIP(r)
	if ip == "" || isLocalAddress(ip) {
		// 本地/内网请求没有可查询的公网归属地，直接走默认值。
		return d.fallback()
	}

	d.mu.RLock()
	cached, hit := d.cache[ip]
	d.mu.RUnlock()
	if hit {
		return cached
	}

	domestic, err := d.lookup(ctx, ip)
	if err != nil {
		slog.Warn("地区探测失败，使用回退判定", "ip", ip, "error", err)
		return d.fallback()
	}

	d.mu.Lock()
	d.cache[ip] = domestic
	d.mu.Unlock()
	return domestic
}

// lookup 查询 IP 归属地，短重试后放弃。
func (d *Detector) lookup(ctx context.Context, ip string) (bool, error) {
	var countryCode string
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(d.lookupURL, ip), nil)
			if err != nil {
				return err
			}
			resp, err := d.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("归属地查询返回状态码 %d", resp.StatusCode)
			}
			body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
			if err != nil {
				return err
			}
			var payload struct {
				CountryCode string `json:"countryCode"`
			}
			if err := json.Unmarshal(body, &payload); err != nil {
				return err
			}
			countryCode = payload.CountryCode
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return false, err
	}
	return countryCode == "CN", nil
}

// fallback 先看本机时区（国内部署的服务大概率服务国内用户），再用配置默认值。
func (d *Detector) fallback() bool {
	if tz := time.Local.String(); tz == "Asia/Shanghai" || tz == "Asia/Chongqing" {
		return true
	}
	return d.defaultDomestic
}

// clientIP 从代理头或连接地址中取客户端 IP。
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		return strings.TrimSpace(rip)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func isLocalAddress(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return true
	}
	return parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified()
}
