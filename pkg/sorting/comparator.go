package sorting

import (
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Comparator 为学段、学科、年级标签提供展示用的全序比较。
// 学段与学科按外部配置的优先级表排序；年级按多级规则级联比较。
// 自由文本（书名等）不走这里，见 CompareText。
type Comparator struct {
	levelRank   map[string]int
	subjectRank map[string]int

	// collate.Collator 非并发安全，统一用锁保护。
	mu  sync.Mutex
	col *collate.Collator
}

// New 根据优先级表构造比较器。表中未出现的标签一律排在已列出标签之后。
func New(levelOrder, subjectOrder []string) *Comparator {
	c := &Comparator{
		levelRank:   make(map[string]int, len(levelOrder)),
		subjectRank: make(map[string]int, len(subjectOrder)),
		col:         collate.New(language.SimplifiedChinese),
	}
	for i, name := range levelOrder {
		c.levelRank[name] = i + 1
	}
	for i, name := range subjectOrder {
		c.subjectRank[name] = i + 1
	}
	return c
}

// CompareText 是简体中文环境下的字典序比较，用于书名等自由文本。
func (c *Comparator) CompareText(a, b string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.col.CompareString(a, b)
}

// CompareLevels 按配置的学段优先级比较，未列出的学段排在最后并按字典序细分。
func (c *Comparator) CompareLevels(a, b string) int {
	return c.compareRanked(c.levelRank, a, b)
}

// CompareSubjects 按配置的学科优先级比较。
func (c *Comparator) CompareSubjects(a, b string) int {
	return c.compareRanked(c.subjectRank, a, b)
}

func (c *Comparator) compareRanked(rank map[string]int, a, b string) int {
	ra, rb := rank[a], rank[b]
	switch {
	case ra > 0 && rb > 0:
		return sign(ra - rb)
	case ra > 0:
		return -1
	case rb > 0:
		return 1
	default:
		return c.CompareText(a, b)
	}
}

// 年级标签中的终结分类，固定排在普通年级之后，彼此之间按此表的相对顺序。
var terminalGradeRank = map[string]int{
	"练习题":  1,
	"中考练习": 2,
	"高考练习": 3,
	"数学练习": 4,
	"course": 5,
	"大学":   6,
	"unknown": 7,
}

// gradeKey 是年级标签的排序键。比较按字段顺序逐级进行，
// 全部相等时回退到字典序，因此整个比较关系是严格的字典序组合，
// 天然满足反对称与传递性——跨类别比较由类别序位决定，绝不落入
// 与类别内数值规则相冲突的字典序。
type gradeKey struct {
	// terminal 为 0 表示普通年级；终结分类取 terminalGradeRank 的序位，
	// 因此永远排在普通年级之后。
	terminal int

	// category 是普通年级的类别序位：
	// 1 = X年级 形式；2 = 高一/初三 这类学段前缀简写；
	// 3 = 必修/选修；4 = 其余标签。
	category int

	// class 是类别内的子序位：初 先于 高，必修 先于 选修。
	class int

	// number 是标签内嵌的编号（中文或阿拉伯数字），没有编号时为 0，
	// 无编号的标签排在同类别有编号标签之前。
	number int
}

func gradeKeyOf(s string) gradeKey {
	if r := terminalGradeRank[s]; r > 0 {
		return gradeKey{terminal: r}
	}
	switch {
	case strings.Contains(s, "年级"):
		return gradeKey{category: 1, number: gradeNumber(s)}
	case hasStagePrefix(s):
		class := 0
		if strings.HasPrefix(s, "高") {
			class = 1
		}
		return gradeKey{category: 2, class: class, number: gradeNumber(s)}
	case strings.Contains(s, "必修") || strings.Contains(s, "选修"):
		class := 0
		if strings.Contains(s, "选修") {
			class = 1
		}
		return gradeKey{category: 3, class: class, number: gradeNumber(s)}
	default:
		return gradeKey{category: 4, number: embeddedNumber(s)}
	}
}

// CompareGrades 比较两个年级标签：终结分类排在普通年级之后，
// 普通年级先按类别（X年级 → 学段前缀简写 → 必修/选修 → 其余），
// 同类别内 初 先于 高、必修 先于 选修，再按内嵌编号升序，最后字典序兜底。
func (c *Comparator) CompareGrades(a, b string) int {
	if a == b {
		return 0
	}
	ka, kb := gradeKeyOf(a), gradeKeyOf(b)
	if d := sign(ka.terminal - kb.terminal); d != 0 {
		return d
	}
	if d := sign(ka.category - kb.category); d != 0 {
		return d
	}
	if d := sign(ka.class - kb.class); d != 0 {
		return d
	}
	if d := sign(ka.number - kb.number); d != 0 {
		return d
	}
	return c.CompareText(a, b)
}

// SortLevels 原地排序学段切片。
func (c *Comparator) SortLevels(levels []string) {
	sortSlice(levels, c.CompareLevels)
}

// SortSubjects 原地排序学科切片。
func (c *Comparator) SortSubjects(subjects []string) {
	sortSlice(subjects, c.CompareSubjects)
}

// SortGrades 原地排序年级切片。
func (c *Comparator) SortGrades(grades []string) {
	sortSlice(grades, c.CompareGrades)
}

func sortSlice(s []string, cmp func(a, b string) int) {
	// 标签集合很小（十来个），插入排序足够。
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && cmp(s[j-1], s[j]) > 0; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

var cjkDigits = map[rune]int{
	'一': 1, '二': 2, '三': 3, '四': 4, '五': 5,
	'六': 6, '七': 7, '八': 8, '九': 9, '十': 10,
}

// CJKNumeral 返回标签中第一个中文数字（一至十）对应的数值，没有则返回 0。
// 只识别单字数字：十一及以上的复合写法不做分解，"十一年级" 会被读作 10。
// 上游数据没有这类年级，保持该行为不变。
func CJKNumeral(s string) int {
	for _, r := range s {
		if n, ok := cjkDigits[r]; ok {
			return n
		}
	}
	return 0
}

// embeddedNumber 返回标签中第一段连续阿拉伯数字的数值，没有则返回 0。
func embeddedNumber(s string) int {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			n, _ := strconv.Atoi(s[start:i])
			return n
		}
	}
	if start >= 0 {
		n, _ := strconv.Atoi(s[start:])
		return n
	}
	return 0
}

// gradeNumber 优先读阿拉伯数字，退而读中文数字。
func gradeNumber(s string) int {
	if n := embeddedNumber(s); n > 0 {
		return n
	}
	return CJKNumeral(s)
}

// hasStagePrefix 判断标签是否带高中/初中前缀（高一、初三等简写）。
func hasStagePrefix(s string) bool {
	return strings.HasPrefix(s, "高") || strings.HasPrefix(s, "初")
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
