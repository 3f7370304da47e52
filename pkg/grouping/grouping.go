package grouping

import (
	"regexp"
	"sort"
	"strings"

	"Textbook_Browser/internal/models"
	"Textbook_Browser/pkg/sorting"
)

// 同一本书在目录里往往散落成多个条目：上下册、多个拆分分卷、
// 不同括号注记的变体。这里把过滤结果按归一化书名聚成可渲染的层级：
// 书名 → 学期 → { 完整文件, 拆分分卷 }。分组结构每次交互现算现扔，不做缓存。

// Bucket 是 (书名, 学期) 桶：Mains 保持输入顺序，Splits 按分卷号升序。
type Bucket struct {
	Mains  []models.CatalogEntry `json:"mains"`
	Splits []models.CatalogEntry `json:"splits"`
}

// Grouped 是 归一化书名 → 学期 → 桶 的两级映射。
type Grouped map[string]map[models.Semester]*Bucket

var (
	volumeSuffixRe = regexp.MustCompile(`(上册|下册)\s*$`)
	partSuffixRe   = regexp.MustCompile(`第[一二三四五六七八九十]+册\s*$`)
	parenSuffixRe  = regexp.MustCompile(`[（(][^（）()]*[）)]\s*$`)
	multiSpaceRe   = regexp.MustCompile(`\s+`)
	middotSpaceRe  = regexp.MustCompile(`\s*[·•]\s*`)
	periodSpaceRe  = regexp.MustCompile(`\s*\.\s*`)
)

// NormalizeTitle 计算分组键：剥掉上/下册、第N册、末尾括号注记，
// 再归一化内部空白与间隔符。
func NormalizeTitle(title string) string {
	t := strings.TrimSpace(title)
	t = volumeSuffixRe.ReplaceAllString(t, "")
	t = partSuffixRe.ReplaceAllString(t, "")
	t = parenSuffixRe.ReplaceAllString(t, "")
	t = multiSpaceRe.ReplaceAllString(t, " ")
	t = middotSpaceRe.ReplaceAllString(t, "·")
	t = periodSpaceRe.ReplaceAllString(t, ".")
	return strings.TrimSpace(t)
}

// GroupByBaseTitle 把条目聚合为两级映射。每个输入条目恰好落入一个桶，
// 桶的并集等于输入集合。
func GroupByBaseTitle(entries []models.CatalogEntry) Grouped {
	grouped := make(Grouped)
	for _, e := range entries {
		base := NormalizeTitle(e.Title)
		semester := e.Semester
		if semester == "" {
			semester = models.SemesterUnknown
		}

		bySemester, ok := grouped[base]
		if !ok {
			bySemester = make(map[models.Semester]*Bucket)
			grouped[base] = bySemester
		}
		bucket, ok := bySemester[semester]
		if !ok {
			bucket = &Bucket{}
			bySemester[semester] = bucket
		}

		if e.IsSplit {
			bucket.Splits = append(bucket.Splits, e)
		} else {
			bucket.Mains = append(bucket.Mains, e)
		}
	}

	for _, bySemester := range grouped {
		for _, bucket := range bySemester {
			sortSplits(bucket.Splits)
		}
	}
	return grouped
}

// sortSplits 按分卷号升序排列；缺失分卷号的条目沿用其 1 起算的出现位置。
func sortSplits(splits []models.CatalogEntry) {
	type keyedEntry struct {
		key   int
		entry models.CatalogEntry
	}
	keyed := make([]keyedEntry, len(splits))
	for i, e := range splits {
		k := i + 1
		if e.PartNumber != nil {
			k = *e.PartNumber
		}
		keyed[i] = keyedEntry{key: k, entry: e}
	}
	sort.SliceStable(keyed, func(i, j int) bool { return keyed[i].key < keyed[j].key })
	for i := range keyed {
		splits[i] = keyed[i].entry
	}
}

// DisplayTitle 决定是否在书名前缀出版社：出版社未知、两者互相包含
// 或完全相同时不加前缀。
func DisplayTitle(publisher, title string) string {
	switch {
	case publisher == "" || publisher == models.UnknownPublisherSentinel:
		return title
	case publisher == title:
		return title
	case strings.Contains(title, publisher) || strings.Contains(publisher, title):
		return title
	default:
		return publisher + " " + title
	}
}

// SortedBaseTitles 返回按简体中文字典序排列的书名键。
// 书名是自由文本，不走领域标签比较器。
func SortedBaseTitles(grouped Grouped, cmp *sorting.Comparator) []string {
	titles := make([]string, 0, len(grouped))
	for t := range grouped {
		titles = append(titles, t)
	}
	sort.Slice(titles, func(i, j int) bool { return cmp.CompareText(titles[i], titles[j]) < 0 })
	return titles
}
