package database

import (
	"context"

	"Textbook_Browser/internal/models"
)

// Store 是顶层接口，组合各个数据域的存储接口。
// 目录本身常驻内存，这里只负责两类小数据：
// 每日下载计数器，以及用户对展示规则的持久化覆盖。
// 存储不可用时上层全部安静降级，绝不阻塞浏览与下载主流程。
type Store interface {
	Counters() CounterStore
	Rules() RuleStore
	EnsureIndexes(ctx context.Context) error
	Close(ctx context.Context) error
}

// CounterStore 定义按日历日计数的下载统计操作。
// 计数是 read-modify-write 的尽力而为语义，多实例并发竞争可以接受。
type CounterStore interface {
	// IncrementDaily 把指定日期（2006-01-02 格式）的计数加一，返回新值。
	IncrementDaily(ctx context.Context, date string) (int64, error)

	// GetDaily 读取指定日期的计数，没有记录时返回 0。
	GetDaily(ctx context.Context, date string) (int64, error)

	// Recent 返回最近 n 天的计数，键为日期字符串。
	Recent(ctx context.Context, n int) (map[string]int64, error)
}

// RuleStore 定义展示规则覆盖的读写。覆盖按学段整体替换，不做字段级合并。
type RuleStore interface {
	GetOverrides(ctx context.Context) (map[string]models.DisplayRule, error)
	SaveOverrides(ctx context.Context, overrides map[string]models.DisplayRule) error
}
