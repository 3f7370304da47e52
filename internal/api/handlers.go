package api

import (
	"Textbook_Browser/config"
	"Textbook_Browser/internal/models"
	"Textbook_Browser/internal/region"
	"Textbook_Browser/internal/task"
	"Textbook_Browser/pkg/catalog"
	"Textbook_Browser/pkg/database"
	"Textbook_Browser/pkg/displayrules"
	"Textbook_Browser/pkg/download"
	"Textbook_Browser/pkg/grouping"
	"Textbook_Browser/pkg/publisher"
	"Textbook_Browser/pkg/sorting"
	"encoding/json"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"
)

// APIHandlers 持有所有依赖。
type APIHandlers struct {
	index       *catalog.Index
	cmp         *sorting.Comparator
	taskManager *task.Manager
	db          database.Store // 可以为 nil：计数与规则覆盖退化为默认行为
	resolver    *download.Resolver
	detector    *region.Detector
}

// NewAPIHandlers 创建API处理器实例。
func NewAPIHandlers(ix *catalog.Index, cmp *sorting.Comparator, tm *task.Manager, db database.Store, resolver *download.Resolver, detector *region.Detector) *APIHandlers {
	return &APIHandlers{
		index:       ix,
		cmp:         cmp,
		taskManager: tm,
		db:          db,
		resolver:    resolver,
		detector:    detector,
	}
}

// --- 辅助函数 ---

// respondJSON 统一返回JSON响应。
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(response)
}

// respondError 统一返回错误信息。
func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]string{"error": message})
}

// --- 层级浏览处理器 ---

type levelInfo struct {
	Name string             `json:"name"`
	Rule models.DisplayRule `json:"rule"`
}

// HandleListLevels 返回按配置顺序排序的学段及其展示规则。
func (h *APIHandlers) HandleListLevels(w http.ResponseWriter, r *http.Request) {
	levels := h.index.Levels()
	h.cmp.SortLevels(levels)

	rules := displayrules.Resolve(r.Context(), h.db)
	out := make([]levelInfo, 0, len(levels))
	for _, name := range levels {
		out = append(out, levelInfo{Name: name, Rule: displayrules.RuleFor(rules, name)})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"levels": out})
}

// HandleListSubjects 返回某学段下排序后的学科列表。
func (h *APIHandlers) HandleListSubjects(w http.ResponseWriter, r *http.Request) {
	level := r.URL.Query().Get("level")
	if level == "" {
		respondError(w, http.StatusBadRequest, "缺少查询参数 'level'")
		return
	}
	subjects := h.index.Subjects(level)
	h.cmp.SortSubjects(subjects)
	respondJSON(w, http.StatusOK, map[string]interface{}{"level": level, "subjects": subjects})
}

// HandleListGrades 返回某学段某学科下排序后的年级列表。
func (h *APIHandlers) HandleListGrades(w http.ResponseWriter, r *http.Request) {
	level := r.URL.Query().Get("level")
	subject := r.URL.Query().Get("subject")
	if level == "" || subject == "" {
		respondError(w, http.StatusBadRequest, "缺少查询参数 'level' 或 'subject'")
		return
	}
	grades := h.index.Grades(level, subject)
	h.cmp.SortGrades(grades)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"level": level, "subject": subject, "grades": grades,
	})
}

// --- 书目处理器 ---

type bookFile struct {
	Title        string          `json:"title"`
	DisplayTitle string          `json:"displayTitle"`
	Publisher    string          `json:"publisher"`
	FileName     string          `json:"fileName"`
	Semester     models.Semester `json:"semester"`
	FileSize     int64           `json:"fileSize"`
	IsSplit      bool            `json:"isSplit"`
	PartNumber   *int            `json:"partNumber,omitempty"`
}

type semesterGroup struct {
	Semester models.Semester `json:"semester"`
	Mains    []bookFile      `json:"mains"`
	Splits   []bookFile      `json:"splits"`
}

type bookGroup struct {
	BaseTitle string          `json:"baseTitle"`
	Semesters []semesterGroup `json:"semesters"`
}

// 书目分组内的学期展示顺序。
var semesterOrder = []models.Semester{
	models.SemesterFirst,
	models.SemesterSecond,
	models.SemesterComplete,
	models.SemesterPractice,
	models.SemesterUnknown,
}

// HandleListBooks 过滤、解析出版社并分组返回书目。
// 学段规则要求忽略年级过滤时，即便请求携带 grade 也不会用于过滤。
func (h *APIHandlers) HandleListBooks(w http.ResponseWriter, r *http.Request) {
	level := r.URL.Query().Get("level")
	if level == "" {
		respondError(w, http.StatusBadRequest, "缺少查询参数 'level'")
		return
	}

	criteria := catalog.Criteria{
		Level:   level,
		Subject: r.URL.Query().Get("subject"),
		Grade:   r.URL.Query().Get("grade"),
	}
	rules := displayrules.Resolve(r.Context(), h.db)
	if displayrules.RuleFor(rules, level).IgnoreGradeFiltering {
		criteria.Grade = ""
	}

	entries := h.index.Filter(criteria)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"criteria": map[string]string{"level": criteria.Level, "subject": criteria.Subject, "grade": criteria.Grade},
		"total":    len(entries),
		"groups":   h.buildGroups(entries),
	})
}

// buildGroups 把过滤结果转换为按书名、学期组织的响应结构。
func (h *APIHandlers) buildGroups(entries []models.CatalogEntry) []bookGroup {
	grouped := grouping.GroupByBaseTitle(entries)
	titles := grouping.SortedBaseTitles(grouped, h.cmp)

	groups := make([]bookGroup, 0, len(titles))
	for _, baseTitle := range titles {
		bySemester := grouped[baseTitle]
		group := bookGroup{BaseTitle: baseTitle}
		for _, sem := range semesterOrder {
			bucket, ok := bySemester[sem]
			if !ok {
				continue
			}
			group.Semesters = append(group.Semesters, semesterGroup{
				Semester: sem,
				Mains:    toBookFiles(bucket.Mains),
				Splits:   toBookFiles(bucket.Splits),
			})
		}
		groups = append(groups, group)
	}
	return groups
}

func toBookFiles(entries []models.CatalogEntry) []bookFile {
	out := make([]bookFile, 0, len(entries))
	for _, e := range entries {
		pub := publisher.Resolve(e.FileName, e.Publisher)
		out = append(out, bookFile{
			Title:        e.Title,
			DisplayTitle: grouping.DisplayTitle(pub, e.Title),
			Publisher:    pub,
			FileName:     e.FileName,
			Semester:     e.Semester,
			FileSize:     e.FileSize,
			IsSplit:      e.IsSplit,
			PartNumber:   e.PartNumber,
		})
	}
	return out
}

// HandleSearch 按关键词搜索书目。
func (h *APIHandlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "缺少搜索查询参数 'q'")
		return
	}
	entries := h.index.Search(query)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":  query,
		"total":  len(entries),
		"groups": h.buildGroups(entries),
	})
}

// --- 下载处理器 ---

// HandleDownload 解析某个文件在当前地区下的下载地址。
// 大文件且未携带 confirm=true 时返回确认要求，不计数、不给出地址。
func (h *APIHandlers) HandleDownload(w http.ResponseWriter, r *http.Request) {
	fileName := r.URL.Query().Get("file")
	if fileName == "" {
		respondError(w, http.StatusBadRequest, "缺少查询参数 'file'")
		return
	}
	entry := h.index.FindByFileName(fileName)
	if entry == nil {
		respondError(w, http.StatusNotFound, "找不到文件: "+fileName)
		return
	}

	isDomestic := h.detector.IsDomestic(r.Context(), r)
	confirmed := r.URL.Query().Get("confirm") == "true"

	result := h.resolver.Request(r.Context(), entry, isDomestic, confirmed)
	if result.NeedsConfirmation {
		respondJSON(w, http.StatusOK, result)
		return
	}
	if result.URL == "" {
		respondError(w, http.StatusNotFound, "该文件暂无可用的下载地址")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// HandleRegion 返回当前请求的地区判定，供调试与前端提示使用。
func (h *APIHandlers) HandleRegion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]bool{
		"isDomestic": h.detector.IsDomestic(r.Context(), r),
	})
}

// --- 统计处理器 ---

// HandleStats 返回目录统计与当天的下载计数。
func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"catalog":        h.index.Stats(),
		"downloadsToday": h.resolver.TodayCount(r.Context()),
	})
}

// --- 任务处理器 ---

// HandleStartReloadTask 触发一次后台目录重载。
func (h *APIHandlers) HandleStartReloadTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := h.taskManager.StartReloadTask(config.C.Catalog.DataPath)
	if err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"taskId": taskID})
}

// HandleGetTaskStatus 查询任务状态。
func (h *APIHandlers) HandleGetTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskId")
	status, err := h.taskManager.GetTaskStatus(taskID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// --- 展示规则处理器 ---

// HandleGetDisplayRules 返回完整解析后的展示规则（默认值 + 持久化覆盖）。
func (h *APIHandlers) HandleGetDisplayRules(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, displayrules.Resolve(r.Context(), h.db))
}

// HandleUpdateDisplayRules 保存用户的展示规则覆盖。
// 覆盖按学段整体替换；存储不可用时返回 503，浏览功能不受影响。
func (h *APIHandlers) HandleUpdateDisplayRules(w http.ResponseWriter, r *http.Request) {
	var overrides map[string]models.DisplayRule
	if err := json.NewDecoder(r.Body).Decode(&overrides); err != nil {
		respondError(w, http.StatusBadRequest, "无效的规则格式: "+err.Error())
		return
	}
	if h.db == nil {
		respondError(w, http.StatusServiceUnavailable, "持久化存储不可用，规则覆盖仅在当前会话生效")
		return
	}
	if err := h.db.Rules().SaveOverrides(r.Context(), overrides); err != nil {
		respondError(w, http.StatusInternalServerError, "保存规则覆盖失败: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, displayrules.Resolve(r.Context(), h.db))
}

// --- 配置处理器 ---

// HandleGetConfig 获取当前应用配置。
func (h *APIHandlers) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, config.C)
}

// HandleUpdateConfig 更新并保存应用配置。
func (h *APIHandlers) HandleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var newConfig config.Config
	if err := json.NewDecoder(r.Body).Decode(&newConfig); err != nil {
		respondError(w, http.StatusBadRequest, "无效的配置格式: "+err.Error())
		return
	}

	yamlData, err := yaml.Marshal(&newConfig)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "序列化配置为YAML失败: "+err.Error())
		return
	}
	if err := os.WriteFile("config.yaml", yamlData, 0644); err != nil {
		respondError(w, http.StatusInternalServerError, "写入config.yaml文件失败: "+err.Error())
		return
	}

	config.Replace(&newConfig)
	respondJSON(w, http.StatusOK, config.C)
}
