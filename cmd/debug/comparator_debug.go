//go:build ignore
// +build ignore

// ^^^ 在运行或编译前，请注释掉上面两行

package main

import (
	"fmt"
	"log"
	"os"

	"Textbook_Browser/config"
	"Textbook_Browser/pkg/sorting"
)

// 年级比较器诊断工具：把命令行传入的年级标签按比较器排序后输出，
// 并打印任意两个标签之间的比较结果，方便排查排序不符合预期的问题。
func main() {
	log.Println("========================================")
	log.Println("===       年级比较器诊断工具         ===")
	log.Println("========================================")

	labels := os.Args[1:]
	if len(labels) == 0 {
		labels = []string{"初三", "初一", "初二", "高一", "必修1", "选修2", "一年级", "九年级", "练习题", "中考练习", "course", "unknown"}
		log.Println("未提供参数，使用内置示例标签。")
	}

	comparator := sorting.New(config.DefaultLevelOrder, config.DefaultSubjectOrder)

	fmt.Println("\n--- 两两比较结果 ---")
	for i := 0; i < len(labels); i++ {
		for j := i + 1; j < len(labels); j++ {
			c := comparator.CompareGrades(labels[i], labels[j])
			rev := comparator.CompareGrades(labels[j], labels[i])
			mark := "✅"
			if c != -rev {
				mark = "❌ 非对称！"
			}
			fmt.Printf("cmp(%s, %s) = %+d, cmp(%s, %s) = %+d %s\n",
				labels[i], labels[j], c, labels[j], labels[i], rev, mark)
		}
	}

	sorted := append([]string(nil), labels...)
	comparator.SortGrades(sorted)
	fmt.Println("\n--- 排序结果 ---")
	for i, l := range sorted {
		fmt.Printf("%2d. %s  (中文数字=%d)\n", i+1, l, sorting.CJKNumeral(l))
	}
}
