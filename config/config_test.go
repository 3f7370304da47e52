package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetGlobals 清空包级配置状态，让各测试不依赖执行顺序。
func resetGlobals(t *testing.T) {
	t.Helper()
	mu.Lock()
	prevV, prevC := v, C
	v, C = nil, nil
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		v, C = prevV, prevC
		mu.Unlock()
	})
}

func TestFallbacksWithoutConfigFile(t *testing.T) {
	resetGlobals(t)

	// 尚未调用 LoadConfig 时各读取函数回退到硬编码默认值。
	assert.Equal(t, DefaultProxyBase, ProxyBase())
	assert.Equal(t, int64(DefaultLargeFileBytes), LargeFileThreshold())
}

func TestLoadConfig(t *testing.T) {
	resetGlobals(t)

	dir := t.TempDir()
	yaml := `
server:
  port: ":9090"
catalog:
  dataPath: "custom-data.json"
  watchFile: false
download:
  proxyBase: "https://mirror.example.com/"
  largeFileBytes: 1048576
region:
  defaultDomestic: false
displayRules:
  大学:
    ignoreGradeFiltering: true
    useDirectSubjectAccess: true
    useWideCards: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))
	require.NoError(t, LoadConfig(dir))

	assert.Equal(t, ":9090", C.Server.Port)
	assert.Equal(t, "custom-data.json", C.Catalog.DataPath)
	assert.False(t, C.Catalog.WatchFile)
	assert.False(t, C.Region.DefaultDomestic)
	assert.True(t, C.DisplayRules["大学"].UseWideCards)

	// 未写入的键取默认值。
	assert.Equal(t, 30*time.Second, C.Server.Timeout)
	assert.Equal(t, DefaultLevelOrder, C.Catalog.LevelOrder)

	// 实时读取函数反映配置文件里的值。
	assert.Equal(t, "https://mirror.example.com/", ProxyBase())
	assert.Equal(t, int64(1048576), LargeFileThreshold())
}

func TestReplace(t *testing.T) {
	resetGlobals(t)

	cfg := &Config{}
	cfg.Server.Port = ":7070"
	Replace(cfg)
	assert.Same(t, cfg, C)

	// 与并发读取方同时进行时不触发数据竞争（配合 -race 验证）。
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			Replace(&Config{})
		}
	}()
	for i := 0; i < 100; i++ {
		mu.RLock()
		_ = C
		mu.RUnlock()
	}
	<-done
}

func TestLoadConfig_MissingFile(t *testing.T) {
	assert.Error(t, LoadConfig(t.TempDir()))
}

func TestDefaultDisplayRules(t *testing.T) {
	rules := DefaultDisplayRules()
	require.Contains(t, rules, "大学")
	assert.True(t, rules["大学"].IgnoreGradeFiltering)
	assert.True(t, rules["大学"].UseDirectSubjectAccess)
	assert.True(t, rules["大学"].UseWideCards)
}
