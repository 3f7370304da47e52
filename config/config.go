package config

import (
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// DisplayRuleConfig 是配置文件中单个学段的展示规则。
type DisplayRuleConfig struct {
	IgnoreGradeFiltering   bool `mapstructure:"ignoreGradeFiltering" json:"ignoreGradeFiltering" yaml:"ignoreGradeFiltering"`
	UseDirectSubjectAccess bool `mapstructure:"useDirectSubjectAccess" json:"useDirectSubjectAccess" yaml:"useDirectSubjectAccess"`
	UseWideCards           bool `mapstructure:"useWideCards" json:"useWideCards" yaml:"useWideCards"`
}

// CatalogConfig 描述目录数据源。
type CatalogConfig struct {
	// DataPath 是离线生成器产出的目录 JSON 文件路径。
	DataPath string `mapstructure:"dataPath" json:"dataPath" yaml:"dataPath"`
	// WatchFile 为 true 时监听数据文件变更并自动重载。
	WatchFile bool `mapstructure:"watchFile" json:"watchFile" yaml:"watchFile"`
	// LevelOrder 与 SubjectOrder 是排序优先级表，未列出的标签排在已列出之后。
	LevelOrder   []string `mapstructure:"levelOrder" json:"levelOrder" yaml:"levelOrder"`
	SubjectOrder []string `mapstructure:"subjectOrder" json:"subjectOrder" yaml:"subjectOrder"`
}

// DownloadConfig 描述下载地址解析行为。
type DownloadConfig struct {
	// ProxyBase 是国内 CDN 不可用时的代理前缀，支持热更新（见 ProxyBase 函数）。
	ProxyBase string `mapstructure:"proxyBase" json:"proxyBase" yaml:"proxyBase"`
	// LargeFileBytes 是需要用户二次确认的文件大小阈值，默认 50 MiB。
	LargeFileBytes int64 `mapstructure:"largeFileBytes" json:"largeFileBytes" yaml:"largeFileBytes"`
}

// RegionConfig 描述地区探测行为。
type RegionConfig struct {
	// LookupURL 是 IP 归属地查询接口，%s 处填充客户端 IP。
	LookupURL string `mapstructure:"lookupURL" json:"lookupURL" yaml:"lookupURL"`
	// Timeout 是单次查询超时。
	Timeout time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
	// DefaultDomestic 是探测完全失败时的安全默认值。
	DefaultDomestic bool `mapstructure:"defaultDomestic" json:"defaultDomestic" yaml:"defaultDomestic"`
}

type Config struct {
	Server struct {
		Port    string        `mapstructure:"port" json:"port" yaml:"port"`
		Timeout time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
	} `mapstructure:"server" json:"server" yaml:"server"`

	Database struct {
		URI  string `mapstructure:"uri" json:"uri" yaml:"uri"`
		Name string `mapstructure:"name" json:"name" yaml:"name"`
	} `mapstructure:"database" json:"database" yaml:"database"`

	Logger struct {
		Level  string `mapstructure:"level" json:"level" yaml:"level"`
		Format string `mapstructure:"format" json:"format" yaml:"format"`
		Path   string `mapstructure:"path" json:"path" yaml:"path"`
	} `mapstructure:"logger" json:"logger" yaml:"logger"`

	Catalog  CatalogConfig  `mapstructure:"catalog" json:"catalog" yaml:"catalog"`
	Download DownloadConfig `mapstructure:"download" json:"download" yaml:"download"`
	Region   RegionConfig   `mapstructure:"region" json:"region" yaml:"region"`

	// DisplayRules 是各学段的默认展示规则，键为学段标签。
	DisplayRules map[string]DisplayRuleConfig `mapstructure:"displayRules" json:"displayRules" yaml:"displayRules"`
}

var C *Config

var (
	v  *viper.Viper
	mu sync.RWMutex
)

// DefaultProxyBase 是配置缺失时使用的代理前缀，与上游生成器的兜底模板一致。
const DefaultProxyBase = "https://ghfast.top/"

// DefaultLargeFileBytes 为 50 MiB。
const DefaultLargeFileBytes = 50 * 1024 * 1024

// LoadConfig 读取 config.yaml 并反序列化到全局 C。
// 配置文件变更时由 viper（底层 fsnotify）自动重载，使代理前缀等值无需重启即可生效。
func LoadConfig(path string) error {
	nv := viper.New()
	nv.AddConfigPath(path)
	nv.SetConfigName("config")
	nv.SetConfigType("yaml")
	nv.AutomaticEnv()

	setDefaults(nv)

	if err := nv.ReadInConfig(); err != nil {
		return err
	}
	var cfg Config
	if err := nv.Unmarshal(&cfg); err != nil {
		return err
	}

	mu.Lock()
	v = nv
	C = &cfg
	mu.Unlock()

	nv.WatchConfig()
	return nil
}

// Replace 在锁内整体替换全局配置，供配置更新接口使用，
// 避免与并发读取 C 的处理器产生数据竞争。
func Replace(cfg *Config) {
	mu.Lock()
	C = cfg
	mu.Unlock()
}

func setDefaults(nv *viper.Viper) {
	nv.SetDefault("server.port", ":8080")
	nv.SetDefault("server.timeout", 30*time.Second)
	nv.SetDefault("logger.level", "info")
	nv.SetDefault("logger.format", "text")
	nv.SetDefault("catalog.dataPath", "textbook-data.json")
	nv.SetDefault("catalog.watchFile", true)
	nv.SetDefault("catalog.levelOrder", DefaultLevelOrder)
	nv.SetDefault("catalog.subjectOrder", DefaultSubjectOrder)
	nv.SetDefault("download.proxyBase", DefaultProxyBase)
	nv.SetDefault("download.largeFileBytes", int64(DefaultLargeFileBytes))
	nv.SetDefault("region.lookupURL", "http://ip-api.com/json/%s?fields=countryCode")
	nv.SetDefault("region.timeout", 5*time.Second)
	nv.SetDefault("region.defaultDomestic", true)
}

// ProxyBase 实时读取代理前缀，配置文件热更新后立即生效；配置为空时回退到硬编码默认值。
func ProxyBase() string {
	mu.RLock()
	defer mu.RUnlock()
	if v != nil {
		if base := v.GetString("download.proxyBase"); base != "" {
			return base
		}
	}
	slog.Debug("代理前缀未配置，使用默认值", "default", DefaultProxyBase)
	return DefaultProxyBase
}

// LargeFileThreshold 返回需要二次确认的文件大小阈值。
func LargeFileThreshold() int64 {
	mu.RLock()
	defer mu.RUnlock()
	if v != nil {
		if n := v.GetInt64("download.largeFileBytes"); n > 0 {
			return n
		}
	}
	return DefaultLargeFileBytes
}

// DefaultLevelOrder 是学段的默认展示顺序，来自上游仓库的目录结构。
var DefaultLevelOrder = []string{"小学", "初中", "高中", "小学45学制", "初中45学制", "大学"}

// DefaultSubjectOrder 是学科的默认展示顺序。
var DefaultSubjectOrder = []string{
	"语文", "数学", "英语", "物理", "化学", "生物学",
	"历史", "地理", "政治", "道德与法治", "科学",
	"音乐", "美术", "体育与健康", "信息技术",
	"数学练习", "中考数学", "高考数学",
	"高等数学", "线性代数", "概率论", "大学物理", "大学英语",
}

// DefaultDisplayRules 是各学段展示规则的硬编码默认值：
// 大学教材没有年级层级，直接按学科浏览并使用宽卡片布局。
func DefaultDisplayRules() map[string]DisplayRuleConfig {
	return map[string]DisplayRuleConfig{
		"大学": {
			IgnoreGradeFiltering:   true,
			UseDirectSubjectAccess: true,
			UseWideCards:           true,
		},
	}
}
