// 文件: cmd/browser-server/main.go
package main

import (
	"Textbook_Browser/config"
	"Textbook_Browser/internal/api"
	"Textbook_Browser/internal/region"
	"Textbook_Browser/internal/task"
	"Textbook_Browser/pkg/catalog"
	"Textbook_Browser/pkg/database"
	"Textbook_Browser/pkg/database/mongo"
	"Textbook_Browser/pkg/download"
	"Textbook_Browser/pkg/logger"
	"Textbook_Browser/pkg/sorting"
	"context"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	// --- 1. 初始化 ---
	// .env 是可选的，不存在时静默跳过。
	_ = godotenv.Load()

	if err := config.LoadConfig("."); err != nil {
		log.Fatalf("FATAL: 无法加载配置: %v", err)
	}
	if err := logger.InitLogger(); err != nil {
		log.Fatalf("FATAL: 无法初始化日志: %v", err)
	}
	slog.Info("应用启动")
	defer slog.Info("应用关闭")

	ctx := context.Background()

	// --- 2. 连接数据库 ---
	// 数据库只承载下载计数与规则覆盖，连不上时降级为纯内存运行，浏览功能不受影响。
	var db database.Store
	if config.C.Database.URI != "" {
		store, err := mongo.NewStore(ctx, config.C)
		if err != nil {
			slog.Warn("无法连接到数据库，下载计数与规则覆盖将不可用", "error", err)
		} else {
			if err := store.EnsureIndexes(ctx); err != nil {
				slog.Warn("数据库索引验证失败", "error", err)
			}
			db = store
			defer db.Close(ctx)
		}
	}

	// --- 3. 加载目录数据 ---
	// 加载失败不是致命错误：索引保持为空，所有查询返回空结果，界面按"数据未就绪"渲染。
	index := catalog.NewIndex()
	if err := catalog.LoadInto(index, config.C.Catalog.DataPath); err != nil {
		slog.Warn("目录数据加载失败，将以空目录启动", "path", config.C.Catalog.DataPath, "error", err)
	}
	if config.C.Catalog.WatchFile {
		if err := catalog.Watch(ctx, index, config.C.Catalog.DataPath); err != nil {
			slog.Warn("无法监听目录数据文件", "error", err)
		}
	}

	// --- 4. 创建核心服务实例 ---
	comparator := sorting.New(config.C.Catalog.LevelOrder, config.C.Catalog.SubjectOrder)
	resolver := download.NewResolver(db)
	detector := region.NewDetector()
	taskManager := task.NewManager(index)
	slog.Info("核心服务创建成功", "entries", index.Len())

	// --- 5. 设置并启动HTTP服务器 ---
	router := api.RegisterRoutes(index, comparator, taskManager, db, resolver, detector)

	server := &http.Server{
		Addr:         config.C.Server.Port,
		Handler:      router,
		ReadTimeout:  config.C.Server.Timeout,
		WriteTimeout: config.C.Server.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	slog.Info("HTTP服务器正在启动...", "地址", config.C.Server.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("无法启动HTTP服务器", "error", err)
	}
}
