package displayrules

import (
	"context"
	"log/slog"

	"Textbook_Browser/config"
	"Textbook_Browser/internal/models"
	"Textbook_Browser/pkg/database"
)

// 展示规则的分层解析：硬编码默认值 → 配置文件 → 持久化的用户覆盖。
// 每一层都按学段整体替换规则对象，不做字段级合并；未覆盖的学段保持上一层的值。
// 解析结果是一个完整的映射，调用方不再需要到处做空值判断。

// Defaults 返回硬编码默认值与配置文件合并后的基础规则集。
func Defaults() map[string]models.DisplayRule {
	out := make(map[string]models.DisplayRule)
	for level, rc := range config.DefaultDisplayRules() {
		out[level] = fromConfig(rc)
	}
	if config.C != nil {
		for level, rc := range config.C.DisplayRules {
			out[level] = fromConfig(rc)
		}
	}
	return out
}

// Resolve 在基础规则集之上合并持久化的用户覆盖，返回完整解析结果。
// 存储不可用或读取失败时只记录警告并退回基础规则集，浏览流程不受影响。
func Resolve(ctx context.Context, store database.Store) map[string]models.DisplayRule {
	resolved := Defaults()
	if store == nil {
		return resolved
	}
	overrides, err := store.Rules().GetOverrides(ctx)
	if err != nil {
		slog.Warn("读取展示规则覆盖失败，使用默认规则", "error", err)
		return resolved
	}
	for level, rule := range overrides {
		resolved[level] = rule
	}
	return resolved
}

// RuleFor 返回某学段的规则；没有任何配置的学段得到零值（全关）。
func RuleFor(resolved map[string]models.DisplayRule, level string) models.DisplayRule {
	return resolved[level]
}

func fromConfig(rc config.DisplayRuleConfig) models.DisplayRule {
	return models.DisplayRule{
		IgnoreGradeFiltering:   rc.IgnoreGradeFiltering,
		UseDirectSubjectAccess: rc.UseDirectSubjectAccess,
		UseWideCards:           rc.UseWideCards,
	}
}
