package models

import (
	"encoding/json"
	"strings"
)

// UnknownPublisherSentinel 是上游目录数据中表示"出版社未知"的哨兵字符串。
// 该哨兵只允许出现在与外部数据源的序列化边界上（见 Publisher 类型），
// 内部逻辑一律通过 Publisher.Known 判断，不做魔法字符串比较。
const UnknownPublisherSentinel = "未知出版社"

// Semester 表示教材所属的学期分类。
type Semester string

const (
	SemesterFirst    Semester = "first"    // 上册
	SemesterSecond   Semester = "second"   // 下册
	SemesterComplete Semester = "complete" // 全一册 / 必修 / 选修
	SemesterPractice Semester = "practice" // 练习材料
	SemesterUnknown  Semester = "unknown"
)

// ParseSemester 把外部数据中的学期字段归一化为已知分类，无法识别时归入 unknown。
func ParseSemester(s string) Semester {
	switch Semester(s) {
	case SemesterFirst, SemesterSecond, SemesterComplete, SemesterPractice:
		return Semester(s)
	default:
		return SemesterUnknown
	}
}

// Publisher 是出版社的显式可选类型：要么已知（Name 非空且非哨兵），要么未知。
// 它取代了源数据中到处传递的"未知出版社"魔法字符串。
type Publisher struct {
	Name  string
	Known bool
}

// KnownPublisher 构造一个已知出版社。传入空串或哨兵时退化为未知。
func KnownPublisher(name string) Publisher {
	name = strings.TrimSpace(name)
	if name == "" || name == UnknownPublisherSentinel {
		return Publisher{}
	}
	return Publisher{Name: name, Known: true}
}

// Display 返回用于展示的出版社名称，未知时返回哨兵字符串。
func (p Publisher) Display() string {
	if !p.Known {
		return UnknownPublisherSentinel
	}
	return p.Name
}

// MarshalJSON 在序列化边界上把未知出版社还原为哨兵字符串，保持与上游数据格式兼容。
func (p Publisher) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Display())
}

// UnmarshalJSON 在反序列化边界上把哨兵字符串转换为"未知"状态。
func (p *Publisher) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*p = KnownPublisher(s)
	return nil
}

// CatalogEntry 代表目录中的一个物理文件（一个完整 PDF 或拆分文件的一个分卷）。
// 条目由离线生成器产出，加载后只读；字段名与上游 JSON 保持一致。
type CatalogEntry struct {
	// Level 是学段标签，例如 小学 / 初中 / 高中 / 大学 / 小学45学制。
	Level string `json:"level"`

	// Subject 是学科标签，例如 语文 / 数学 / 高等数学。
	Subject string `json:"subject"`

	// Grade 是年级标签；大学教材使用 "course"，无法解析时为 "unknown"。
	Grade string `json:"grade"`

	// Semester 是学期分类。
	Semester Semester `json:"semester"`

	// Publisher 是出版社，未知时序列化为哨兵字符串。
	Publisher Publisher `json:"publisher"`

	// Title 是去掉扩展名后的展示标题。
	Title string `json:"title"`

	// FilePath 是文件在上游仓库中的完整路径。
	FilePath string `json:"file_path"`

	// FileName 是原始文件名，可能以 .pdf 或 .pdf.<N>（拆分分卷）结尾。
	FileName string `json:"file_name"`

	// DownloadURL 是 GitHub 直连地址，仅作为缺失字段时的兜底。
	DownloadURL string `json:"download_url"`

	// InternationalURL 是海外用户使用的直连地址。
	InternationalURL string `json:"international_url"`

	// ChinaURL 是国内用户使用的 CDN 地址（CDN 不可用时由代理包装）。
	ChinaURL string `json:"china_url"`

	// IsSplit 标记该条目是否为大文件的一个拆分分卷。
	IsSplit bool `json:"is_split"`

	// PartNumber 仅在 IsSplit 为 true 时有意义，定义分卷顺序。
	PartNumber *int `json:"part_number"`

	// FileSize 是文件字节数。
	FileSize int64 `json:"file_size"`

	// PrimaryWorks 表示国内 CDN 路线是否已验证可用；缺失按不可用处理。
	PrimaryWorks *bool `json:"jsdelivr_works"`
}

// CDNVerified 报告国内 CDN 是否已验证可用；字段缺失视为不可用。
func (e *CatalogEntry) CDNVerified() bool {
	return e.PrimaryWorks != nil && *e.PrimaryWorks
}

// CatalogStats 是目录的聚合统计，与上游生成器输出的统计口径一致。
type CatalogStats struct {
	TotalEntries      int `json:"total_entries"`
	MainFiles         int `json:"main_files"`
	SplitFiles        int `json:"split_files"`
	DistinctLevels    int `json:"levels"`
	DistinctSubjects  int `json:"subjects"`
	DistinctPublisher int `json:"publishers"`
}

// DisplayRule 是某个学段的展示行为开关。
type DisplayRule struct {
	// IgnoreGradeFiltering 为 true 时，过滤查询忽略年级字段。
	IgnoreGradeFiltering bool `json:"ignoreGradeFiltering" bson:"ignoreGradeFiltering"`

	// UseDirectSubjectAccess 为 true 时，界面跳过年级层级，学段下直接展示学科。
	UseDirectSubjectAccess bool `json:"useDirectSubjectAccess" bson:"useDirectSubjectAccess"`

	// UseWideCards 只影响展示布局，查询逻辑不消费该开关。
	UseWideCards bool `json:"useWideCards" bson:"useWideCards"`
}
