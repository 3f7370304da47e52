package main

import (
	"Textbook_Browser/config"
	"Textbook_Browser/internal/models"
	"Textbook_Browser/pkg/catalog"
	"Textbook_Browser/pkg/download"
	"Textbook_Browser/pkg/grouping"
	"Textbook_Browser/pkg/publisher"
	"Textbook_Browser/pkg/sorting"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// --- 1. 定义命令行参数 ---
	action := flag.String("action", "", "要执行的操作: stats, levels, subjects, grades, books, search, resolve")
	level := flag.String("level", "", "学段标签，如 小学 / 初中 / 高中 / 大学")
	subject := flag.String("subject", "", "学科标签，如 语文 / 数学")
	grade := flag.String("grade", "", "年级标签，如 一年级 / 必修1")
	query := flag.String("query", "", "用于 search 操作的搜索关键词")
	file := flag.String("file", "", "用于 resolve 操作的文件名")
	china := flag.Bool("china", true, "resolve 操作按国内用户解析地址")

	flag.Parse()

	if *action == "" {
		fmt.Println("错误: 必须提供 -action 参数。")
		flag.Usage()
		os.Exit(1)
	}

	// --- 2. 初始化应用核心组件 ---
	_ = godotenv.Load()
	if err := config.LoadConfig("."); err != nil {
		log.Fatalf("FATAL: 无法加载配置: %v", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	index := catalog.NewIndex()
	if err := catalog.LoadInto(index, config.C.Catalog.DataPath); err != nil {
		slog.Error("FATAL: 无法加载目录数据", "error", err)
		os.Exit(1)
	}
	comparator := sorting.New(config.C.Catalog.LevelOrder, config.C.Catalog.SubjectOrder)

	// --- 3. 根据 action 参数执行相应的功能 ---
	switch *action {
	case "stats":
		stats := index.Stats()
		fmt.Println("--- 目录统计 ---")
		fmt.Printf("条目总数: %d\n完整文件: %d\n拆分分卷: %d\n学段数: %d\n学科数: %d\n出版社数: %d\n",
			stats.TotalEntries, stats.MainFiles, stats.SplitFiles,
			stats.DistinctLevels, stats.DistinctSubjects, stats.DistinctPublisher)

	case "levels":
		levels := index.Levels()
		comparator.SortLevels(levels)
		fmt.Println("--- 学段列表 ---")
		for _, l := range levels {
			fmt.Printf("  %s\n", l)
		}

	case "subjects":
		if *level == "" {
			fmt.Println("错误: subjects 操作需要提供 -level 参数。")
			return
		}
		subjects := index.Subjects(*level)
		comparator.SortSubjects(subjects)
		fmt.Printf("--- %s 的学科列表 ---\n", *level)
		for _, s := range subjects {
			fmt.Printf("  %s\n", s)
		}

	case "grades":
		if *level == "" || *subject == "" {
			fmt.Println("错误: grades 操作需要提供 -level 与 -subject 参数。")
			return
		}
		grades := index.Grades(*level, *subject)
		comparator.SortGrades(grades)
		fmt.Printf("--- %s / %s 的年级列表 ---\n", *level, *subject)
		for _, g := range grades {
			fmt.Printf("  %s\n", g)
		}

	case "books":
		if *level == "" {
			fmt.Println("错误: books 操作需要提供 -level 参数。")
			return
		}
		entries := index.Filter(catalog.Criteria{Level: *level, Subject: *subject, Grade: *grade})
		printGrouped(entries, comparator)

	case "search":
		if *query == "" {
			fmt.Println("错误: search 操作需要提供 -query 参数。")
			return
		}
		entries := index.Search(*query)
		fmt.Printf("--- 关键词 '%s' 命中 %d 个条目 ---\n", *query, len(entries))
		printGrouped(entries, comparator)

	case "resolve":
		if *file == "" {
			fmt.Println("错误: resolve 操作需要提供 -file 参数。")
			return
		}
		entry := index.FindByFileName(*file)
		if entry == nil {
			fmt.Printf("错误: 找不到文件 '%s'\n", *file)
			return
		}
		resolver := download.NewResolver(nil)
		url := resolver.ResolveURL(entry, *china)
		if url == "" {
			fmt.Println("该文件暂无可用的下载地址。")
			return
		}
		if resolver.NeedsConfirmation(entry, *china) {
			fmt.Printf("注意: 文件大小 %d 字节，超过大文件阈值，下载前应取得用户确认。\n", entry.FileSize)
		}
		fmt.Printf("下载地址 (%s): %s\n", regionLabel(*china), url)

	default:
		fmt.Printf("错误: 未知的 action '%s'\n", *action)
		flag.Usage()
	}
}

// printGrouped 按书名、学期打印分组结果。
func printGrouped(entries []models.CatalogEntry, comparator *sorting.Comparator) {
	grouped := grouping.GroupByBaseTitle(entries)
	for _, baseTitle := range grouping.SortedBaseTitles(grouped, comparator) {
		fmt.Printf("%s\n", baseTitle)
		for sem, bucket := range grouped[baseTitle] {
			fmt.Printf("  [%s] 完整 %d 个，分卷 %d 个\n", sem, len(bucket.Mains), len(bucket.Splits))
			for _, e := range bucket.Mains {
				pub := publisher.Resolve(e.FileName, e.Publisher)
				fmt.Printf("    %s (%s)\n", grouping.DisplayTitle(pub, e.Title), e.FileName)
			}
			for _, e := range bucket.Splits {
				part := 0
				if e.PartNumber != nil {
					part = *e.PartNumber
				}
				fmt.Printf("    分卷 %d: %s\n", part, e.FileName)
			}
		}
	}
}

func regionLabel(china bool) string {
	if china {
		return "国内"
	}
	return "海外"
}
