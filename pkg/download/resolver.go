package download

import (
	"context"
	"log/slog"
	"time"

	"Textbook_Browser/config"
	"Textbook_Browser/internal/models"
	"Textbook_Browser/pkg/database"
)

// Resolver 根据用户地区为目录条目挑选下载地址，并维护每日下载计数。
// 地区判定由调用方显式传入（见 internal/region），解析本身是纯函数；
// 只有成功的下载请求才会触碰计数器这一处共享状态。
type Resolver struct {
	proxyBase func() string
	threshold func() int64
	store     database.Store // 可以为 nil，计数退化为仅会话行为
}

// NewResolver 构造解析器。proxyBase 实时读取配置，热更新无需重启。
func NewResolver(store database.Store) *Resolver {
	return &Resolver{
		proxyBase: config.ProxyBase,
		threshold: config.LargeFileThreshold,
		store:     store,
	}
}

// ResolveURL 计算条目的下载地址：
// 国内用户在 CDN 已验证可用时走 CDN 直连，否则走代理包装；海外用户直连源站。
// 目标地址缺失时退回通用 DownloadURL，再缺失时返回空串，
// 调用方必须把空串当作"暂不可下载"处理而不是跳转。
func (r *Resolver) ResolveURL(e *models.CatalogEntry, isDomestic bool) string {
	if e == nil {
		return ""
	}
	if isDomestic {
		if e.ChinaURL == "" {
			return e.DownloadURL
		}
		// CDN 可用性未验证（字段缺失）时按不可用处理，走代理包装。
		if e.CDNVerified() {
			return e.ChinaURL
		}
		return r.proxyBase() + e.ChinaURL
	}
	if e.InternationalURL == "" {
		return e.DownloadURL
	}
	return e.InternationalURL
}

// NeedsConfirmation 判断该条目在当前地区下载前是否需要用户二次确认。
// 只有国内路线的大文件需要确认（代理与 CDN 对大文件都不稳定）。
func (r *Resolver) NeedsConfirmation(e *models.CatalogEntry, isDomestic bool) bool {
	return e != nil && isDomestic && e.FileSize > r.threshold()
}

// Result 是一次下载请求的结论。
type Result struct {
	// URL 为空表示没有发生下载：要么等待确认，要么地址不可用。
	URL string `json:"url,omitempty"`

	// NeedsConfirmation 为 true 时调用方必须先取得用户确认再重试。
	NeedsConfirmation bool `json:"needsConfirmation,omitempty"`

	// FileSize 随确认请求返回，供界面展示。
	FileSize int64 `json:"fileSize,omitempty"`
}

// Request 处理一次完整的下载请求：大文件守卫 → 地址解析 → 计数。
// 守卫触发而未确认时直接中止，不产生任何副作用（不计数、不给出地址）。
func (r *Resolver) Request(ctx context.Context, e *models.CatalogEntry, isDomestic, confirmed bool) Result {
	if r.NeedsConfirmation(e, isDomestic) && !confirmed {
		return Result{NeedsConfirmation: true, FileSize: e.FileSize}
	}

	url := r.ResolveURL(e, isDomestic)
	if url == "" {
		return Result{}
	}

	r.recordDownload(ctx)
	return Result{URL: url}
}

// recordDownload 给当天的计数加一。计数是尽力而为的：
// 存储不可用时记一条警告后放行，绝不阻塞下载。
func (r *Resolver) recordDownload(ctx context.Context) {
	if r.store == nil {
		return
	}
	date := time.Now().Format("2006-01-02")
	if _, err := r.store.Counters().IncrementDaily(ctx, date); err != nil {
		slog.Warn("下载计数更新失败", "date", date, "error", err)
	}
}

// TodayCount 返回当天的下载计数；存储不可用时返回 0。
func (r *Resolver) TodayCount(ctx context.Context) int64 {
	if r.store == nil {
		return 0
	}
	count, err := r.store.Counters().GetDaily(ctx, time.Now().Format("2006-01-02"))
	if err != nil {
		slog.Warn("读取下载计数失败", "error", err)
		return 0
	}
	return count
}
