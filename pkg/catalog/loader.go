package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"Textbook_Browser/internal/models"
)

// Load 读取离线生成器产出的目录 JSON 文件。
// 文件是一个 CatalogEntry 数组；"未知出版社" 哨兵在这一层被转换为显式可选类型。
// 空文件或空数组不是错误：返回空切片，界面按"暂无数据"渲染。
func Load(path string) ([]models.CatalogEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取目录数据文件 %s: %w", path, err)
	}
	if len(data) == 0 {
		return []models.CatalogEntry{}, nil
	}

	var entries []models.CatalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("目录数据文件 %s 格式无效: %w", path, err)
	}

	for i := range entries {
		entries[i].Semester = models.ParseSemester(string(entries[i].Semester))
	}
	return entries, nil
}

// LoadInto 加载数据文件并整体替换索引快照。
func LoadInto(ix *Index, path string) error {
	entries, err := Load(path)
	if err != nil {
		return err
	}
	ix.Replace(entries)
	slog.Info("目录数据已加载", "path", path, "entries", len(entries))
	return nil
}

// Watch 监听数据文件所在目录，文件被重写后自动重载索引。
// 重载失败只记录警告，旧快照保持可用。ctx 取消后监听退出。
// 监听目录而不是文件本身：很多工具通过 rename 原子替换文件，
// 直接监听文件会在第一次替换后丢失事件。
func Watch(ctx context.Context, ix *Index, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("无法创建文件监听器: %w", err)
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("无法监听目录 %s: %w", dir, err)
	}

	target := filepath.Clean(path)
	go func() {
		defer watcher.Close()
		var lastReload time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				// 编辑器保存往往触发连续多个事件，做一个短暂去抖。
				if time.Since(lastReload) < 500*time.Millisecond {
					continue
				}
				lastReload = time.Now()
				if err := LoadInto(ix, path); err != nil {
					slog.Warn("目录数据重载失败，保留旧快照", "path", path, "error", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("文件监听器错误", "error", err)
			}
		}
	}()
	return nil
}
