package publisher

import (
	"regexp"
	"strings"
	"unicode"

	"Textbook_Browser/internal/models"
)

// 出版社推断：目录里大量条目没有出版社目录层级，只能从文件名里
// 按规则猜一个可读的标签。规则按严格顺序尝试，第一个非空结果胜出，
// 兜底规则保证永远返回非空字符串。这是尽力而为的启发式，不追求语义精确。

var (
	pdfSuffixRe = regexp.MustCompile(`(?i)\.pdf(\.\d+)?$`)

	// 规则一：锚定在末尾的括号注记，如 概率论与数理统计(浙大四版) → 浙大四版。
	trailingParenRe = regexp.MustCompile(`[（(]([^（）()]+)[）)]\s*$`)

	// 规则二：书名号之前以"大学"结尾的前缀，如 清华大学《微积分》 → 清华大学。
	universityRe = regexp.MustCompile(`^(.*?大学)`)

	// 规则三：含"版"字的括号组，如 语文（人教版）上册 → 人教版。
	editionParenRe = regexp.MustCompile(`[（(]([^（）()]*版[^（）()]*)[）)]`)

	// 规则四：非中文书名中版次或四位年份之前的前缀。
	latinEditionRe = regexp.MustCompile(`^([^0-9]+?)\s*(?:(?:19|20)\d{2}|\d+(?:st|nd|rd|th)?\s*(?:[Ee]dition|[Ee]d\.?))`)

	// 规则五：第N版 之前的前缀，如 高等数学第七版 → 高等数学。
	editionNumberRe = regexp.MustCompile(`^(.+?)第[一二三四五六七八九十0-9]+版`)
)

// 规则六使用的练习/答案类标记，任一出现即触发。
var practiceMarkers = []string{"习题", "答案", "试卷"}

const (
	practiceQualifier = "（练习材料）"
	fallbackMaxRunes  = 25
)

// Resolve 根据文件名推断展示用的出版社标签。
// 出版社已知时原样返回；未知时依次套用规则，结果确定且非空。
func Resolve(fileName string, original models.Publisher) string {
	if original.Known {
		return original.Name
	}

	base := strings.TrimSpace(pdfSuffixRe.ReplaceAllString(fileName, ""))
	if base == "" {
		return models.UnknownPublisherSentinel
	}

	for _, rule := range rules {
		if got := strings.TrimSpace(rule(base)); got != "" {
			return got
		}
	}
	return fallbackTruncate(base)
}

type extractRule func(base string) string

var rules = []extractRule{
	extractTrailingParen,
	extractUniversityPrefix,
	extractEditionParen,
	extractLatinEditionPrefix,
	extractBeforeEditionNumber,
	extractPracticePrefix,
}

func extractTrailingParen(base string) string {
	if m := trailingParenRe.FindStringSubmatch(base); m != nil {
		return m[1]
	}
	return ""
}

// extractUniversityPrefix 只在"大学"出现在第一个书名号之前时生效。
func extractUniversityPrefix(base string) string {
	head := base
	if idx := strings.Index(base, "《"); idx >= 0 {
		head = base[:idx]
	}
	if m := universityRe.FindStringSubmatch(head); m != nil {
		return m[1]
	}
	return ""
}

func extractEditionParen(base string) string {
	if m := editionParenRe.FindStringSubmatch(base); m != nil {
		return m[1]
	}
	return ""
}

func extractLatinEditionPrefix(base string) string {
	if containsHan(base) {
		return ""
	}
	if m := latinEditionRe.FindStringSubmatch(base); m != nil {
		return strings.TrimRight(strings.TrimSpace(m[1]), "-_,.")
	}
	return ""
}

func extractBeforeEditionNumber(base string) string {
	if m := editionNumberRe.FindStringSubmatch(base); m != nil {
		return m[1]
	}
	return ""
}

func extractPracticePrefix(base string) string {
	cut := -1
	for _, marker := range practiceMarkers {
		if idx := strings.Index(base, marker); idx > 0 {
			if cut < 0 || idx < cut {
				cut = idx
			}
		}
	}
	if cut < 0 {
		return ""
	}
	return base[:cut] + practiceQualifier
}

// fallbackTruncate 是永远成功的兜底：取前 25 个字符，超长时加省略号。
func fallbackTruncate(base string) string {
	runes := []rune(base)
	if len(runes) <= fallbackMaxRunes {
		return base
	}
	return string(runes[:fallbackMaxRunes]) + "…"
}

func containsHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
