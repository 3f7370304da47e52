//go:build ignore
// +build ignore

// ^^^ 在运行或编译前，请注释掉上面两行

package main

import (
	"fmt"
	"log"
	"os"

	"Textbook_Browser/internal/models"
	"Textbook_Browser/pkg/publisher"
)

// 出版社推断诊断工具：对命令行传入的文件名逐条运行推断规则并输出结果。
// 用于排查"为什么这个文件名推断出了奇怪的出版社"。
func main() {
	log.Println("========================================")
	log.Println("===      出版社推断规则诊断工具       ===")
	log.Println("========================================")

	fileNames := os.Args[1:]
	if len(fileNames) == 0 {
		fileNames = []string{
			"概率论与数理统计(浙大四版).pdf",
			"清华大学《微积分》教程.pdf",
			"义务教育教科书语文（人教版）一年级上册.pdf",
			"Calculus 8th Edition.pdf",
			"高等数学第七版上册.pdf.1",
			"初中数学习题精选与答案.pdf",
			"这是一个非常非常非常非常非常非常非常非常长的没有任何规律的文件名.pdf",
		}
		log.Println("未提供参数，使用内置示例文件名。")
	}

	for _, name := range fileNames {
		got := publisher.Resolve(name, models.Publisher{})
		again := publisher.Resolve(name, models.Publisher{})
		mark := "✅"
		if got != again {
			mark = "❌ 结果不确定！"
		}
		fmt.Printf("%s\n  -> %s %s\n", name, got, mark)
	}
}
