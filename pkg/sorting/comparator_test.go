package sorting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"Textbook_Browser/config"
)

func newTestComparator() *Comparator {
	return New(config.DefaultLevelOrder, config.DefaultSubjectOrder)
}

func TestCompareGrades_MiddleSchoolShorthand(t *testing.T) {
	c := newTestComparator()

	grades := []string{"初三", "初一", "初二"}
	c.SortGrades(grades)
	assert.Equal(t, []string{"初一", "初二", "初三"}, grades)
}

func TestCompareGrades_CJKYearGrades(t *testing.T) {
	c := newTestComparator()

	grades := []string{"九年级", "一年级", "五年级", "三年级"}
	c.SortGrades(grades)
	assert.Equal(t, []string{"一年级", "三年级", "五年级", "九年级"}, grades)
}

func TestCompareGrades_TerminalCategoriesSortLast(t *testing.T) {
	c := newTestComparator()

	grades := []string{"练习题", "一年级", "unknown", "course", "中考练习", "九年级", "高考练习"}
	c.SortGrades(grades)
	assert.Equal(t, []string{"一年级", "九年级", "练习题", "中考练习", "高考练习", "course", "unknown"}, grades)
}

func TestCompareGrades_RequiredBeforeElective(t *testing.T) {
	c := newTestComparator()

	grades := []string{"选修2", "必修3", "选修1", "必修1"}
	c.SortGrades(grades)
	assert.Equal(t, []string{"必修1", "必修3", "选修1", "选修2"}, grades)
}

func TestCompareGrades_ArabicNumeralGrades(t *testing.T) {
	c := newTestComparator()
	assert.Negative(t, c.CompareGrades("7年级", "9年级"))
	assert.Positive(t, c.CompareGrades("9年级", "7年级"))
}

// 比较关系必须是符号一致的全序：cmp(a,b) == -cmp(b,a)，且自反为零。
func TestCompareGrades_Antisymmetry(t *testing.T) {
	c := newTestComparator()

	labels := []string{
		"一年级", "二年级", "九年级", "7年级",
		"初一", "初二", "初三", "高一", "高二", "高三",
		"必修1", "必修2", "选修1", "选修2",
		"练习题", "中考练习", "高考练习", "数学练习",
		"course", "unknown", "低年级", "全册",
	}
	for _, a := range labels {
		for _, b := range labels {
			assert.Equal(t, c.CompareGrades(a, b), -c.CompareGrades(b, a),
				"cmp(%s,%s) 与 cmp(%s,%s) 符号不一致", a, b, b, a)
		}
		assert.Zero(t, c.CompareGrades(a, a))
	}
}

// 比较关系还必须可传递：a<b 且 b<c 时必有 a<c。
// 混合形态的标签（X年级 与 高一/初三 简写并存）曾经能构成
// 一年级 < 二年级 < 高一 < 一年级 这样的环，这里对全标签集做穷举三元组检查。
func TestCompareGrades_Transitivity(t *testing.T) {
	c := newTestComparator()

	labels := []string{
		"一年级", "二年级", "三年级", "九年级", "十年级", "7年级", "12年级", "低年级",
		"初一", "初二", "初三", "高一", "高二", "高三",
		"必修1", "必修2", "选修1", "选修2",
		"练习题", "中考练习", "高考练习", "数学练习",
		"course", "unknown", "全册", "第1册", "第2册",
	}
	for _, a := range labels {
		for _, b := range labels {
			if c.CompareGrades(a, b) >= 0 {
				continue
			}
			for _, x := range labels {
				if c.CompareGrades(b, x) < 0 {
					assert.Negative(t, c.CompareGrades(a, x),
						"传递性破坏: %s<%s 且 %s<%s，但 cmp(%s,%s)>=0", a, b, b, x, a, x)
				}
			}
		}
	}
}

func TestCompareGrades_MixedFormsDecidedByCategory(t *testing.T) {
	c := newTestComparator()

	// X年级 形式整体排在学段前缀简写之前，简写内 初 先于 高。
	grades := []string{"高一", "一年级", "初三", "二年级"}
	c.SortGrades(grades)
	assert.Equal(t, []string{"一年级", "二年级", "初三", "高一"}, grades)
}

func TestCompareLevels_PriorityList(t *testing.T) {
	c := newTestComparator()

	levels := []string{"大学", "高中", "小学", "初中"}
	c.SortLevels(levels)
	assert.Equal(t, []string{"小学", "初中", "高中", "大学"}, levels)
}

func TestCompareLevels_UnlistedAfterListed(t *testing.T) {
	c := newTestComparator()
	assert.Negative(t, c.CompareLevels("大学", "特殊教育"))
	assert.Positive(t, c.CompareLevels("特殊教育", "小学"))
}

func TestCompareSubjects_PriorityList(t *testing.T) {
	c := newTestComparator()

	subjects := []string{"英语", "语文", "数学"}
	c.SortSubjects(subjects)
	assert.Equal(t, []string{"语文", "数学", "英语"}, subjects)
}

func TestCJKNumeral(t *testing.T) {
	assert.Equal(t, 1, CJKNumeral("一年级"))
	assert.Equal(t, 9, CJKNumeral("九年级"))
	assert.Equal(t, 10, CJKNumeral("十年级"))
	assert.Equal(t, 0, CJKNumeral("abc"))

	// 复合中文数字不做分解：十一 被读作 十（10）。上游数据没有十一及以上的年级，
	// 该行为保持与源数据处理端一致。
	assert.Equal(t, 10, CJKNumeral("十一年级"))
}

func TestEmbeddedNumber(t *testing.T) {
	assert.Equal(t, 7, embeddedNumber("7年级"))
	assert.Equal(t, 12, embeddedNumber("第12册"))
	assert.Equal(t, 0, embeddedNumber("年级"))
}
