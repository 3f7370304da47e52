package catalog

import (
	"strings"
	"sync"

	"github.com/mozillazg/go-unidecode"

	"Textbook_Browser/internal/models"
)

// Index 是目录条目的内存只读查询层。条目整体加载、整体替换，
// 查询只读取当前快照；尚未加载数据时所有查询安静地返回空结果，
// 让上层界面在数据就绪前也能正常渲染。
type Index struct {
	mu      sync.RWMutex
	entries []models.CatalogEntry
}

// Criteria 是部分过滤条件，空字段视为通配。
type Criteria struct {
	Level   string
	Subject string
	Grade   string
}

// NewIndex 返回一个空索引。
func NewIndex() *Index {
	return &Index{}
}

// Replace 用新的条目集合整体替换当前快照。
func (ix *Index) Replace(entries []models.CatalogEntry) {
	ix.mu.Lock()
	ix.entries = entries
	ix.mu.Unlock()
}

// snapshot 返回当前条目切片；nil 索引安全，返回空。
func (ix *Index) snapshot() []models.CatalogEntry {
	if ix == nil {
		return nil
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.entries
}

// Len 返回条目总数。
func (ix *Index) Len() int {
	return len(ix.snapshot())
}

// Levels 返回出现过的所有学段，顺序未定义，由调用方排序。
func (ix *Index) Levels() []string {
	return ix.distinct(func(e *models.CatalogEntry) (string, bool) {
		return e.Level, true
	})
}

// Subjects 返回某学段下的所有学科。
func (ix *Index) Subjects(level string) []string {
	return ix.distinct(func(e *models.CatalogEntry) (string, bool) {
		return e.Subject, e.Level == level
	})
}

// Grades 返回某学段某学科下的所有年级。
func (ix *Index) Grades(level, subject string) []string {
	return ix.distinct(func(e *models.CatalogEntry) (string, bool) {
		return e.Grade, e.Level == level && e.Subject == subject
	})
}

func (ix *Index) distinct(pick func(e *models.CatalogEntry) (string, bool)) []string {
	seen := make(map[string]struct{})
	var out []string
	entries := ix.snapshot()
	for i := range entries {
		if v, ok := pick(&entries[i]); ok {
			if _, dup := seen[v]; !dup && v != "" {
				seen[v] = struct{}{}
				out = append(out, v)
			}
		}
	}
	return out
}

// Filter 返回匹配所有指定字段的条目；条件匹配不到任何条目或目录为空时返回空切片。
func (ix *Index) Filter(c Criteria) []models.CatalogEntry {
	var out []models.CatalogEntry
	for _, e := range ix.snapshot() {
		if c.Level != "" && e.Level != c.Level {
			continue
		}
		if c.Subject != "" && e.Subject != c.Subject {
			continue
		}
		if c.Grade != "" && e.Grade != c.Grade {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FindByFileName 按原始文件名查找条目，找不到时返回 nil。
func (ix *Index) FindByFileName(fileName string) *models.CatalogEntry {
	for _, e := range ix.snapshot() {
		if e.FileName == fileName {
			entry := e
			return &entry
		}
	}
	return nil
}

// Search 对书名与出版社做大小写不敏感的子串匹配，
// 并额外做一次 ASCII 折叠（unidecode），让拉丁字母查询也能命中中文标题。
func (ix *Index) Search(query string) []models.CatalogEntry {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	qLower := strings.ToLower(query)
	qFolded := asciiFold(query)

	var out []models.CatalogEntry
	for _, e := range ix.snapshot() {
		haystack := strings.ToLower(e.Title + " " + e.Publisher.Display() + " " + e.FileName)
		if strings.Contains(haystack, qLower) || strings.Contains(asciiFold(haystack), qFolded) {
			out = append(out, e)
		}
	}
	return out
}

func asciiFold(s string) string {
	return strings.ToLower(strings.TrimSpace(unidecode.Unidecode(s)))
}

// Stats 计算目录的聚合统计。
func (ix *Index) Stats() models.CatalogStats {
	entries := ix.snapshot()
	stats := models.CatalogStats{TotalEntries: len(entries)}

	levels := make(map[string]struct{})
	subjects := make(map[string]struct{})
	publishers := make(map[string]struct{})
	for _, e := range entries {
		if e.IsSplit {
			stats.SplitFiles++
		} else {
			stats.MainFiles++
		}
		levels[e.Level] = struct{}{}
		subjects[e.Subject] = struct{}{}
		publishers[e.Publisher.Display()] = struct{}{}
	}
	stats.DistinctLevels = len(levels)
	stats.DistinctSubjects = len(subjects)
	stats.DistinctPublisher = len(publishers)
	return stats
}
