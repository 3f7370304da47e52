package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Textbook_Browser/internal/models"
)

func boolPtr(b bool) *bool { return &b }

func sampleEntries() []models.CatalogEntry {
	return []models.CatalogEntry{
		{
			Level: "小学", Subject: "数学", Grade: "一年级",
			Semester: models.SemesterFirst, Title: "数学",
			FileName:  "数学一年级上册.pdf",
			Publisher: models.KnownPublisher("人教版"),
		},
		{
			Level: "小学", Subject: "语文", Grade: "一年级",
			Semester: models.SemesterFirst, Title: "语文",
			FileName: "语文一年级上册.pdf",
		},
		{
			Level: "高中", Subject: "数学", Grade: "必修1",
			Semester: models.SemesterComplete, Title: "数学必修1",
			FileName: "数学必修1.pdf",
		},
		{
			Level: "大学", Subject: "高等数学", Grade: "course",
			Semester: models.SemesterComplete, Title: "高等数学",
			FileName: "高等数学.pdf.1", IsSplit: true,
			PrimaryWorks: boolPtr(true),
		},
	}
}

func TestIndex_EmptyDegradesGracefully(t *testing.T) {
	ix := NewIndex()

	assert.Empty(t, ix.Levels())
	assert.Empty(t, ix.Subjects("小学"))
	assert.Empty(t, ix.Grades("小学", "数学"))
	assert.Empty(t, ix.Filter(Criteria{Level: "小学"}))
	assert.Empty(t, ix.Search("数学"))
	assert.Zero(t, ix.Stats().TotalEntries)
	assert.Nil(t, ix.FindByFileName("x.pdf"))
}

func TestIndex_NilIndexIsSafe(t *testing.T) {
	var ix *Index
	assert.Empty(t, ix.Levels())
	assert.Empty(t, ix.Filter(Criteria{}))
}

func TestIndex_SingleEntryEndToEnd(t *testing.T) {
	ix := NewIndex()
	ix.Replace([]models.CatalogEntry{{
		Level: "小学", Subject: "数学", Grade: "一年级",
		Semester: models.SemesterFirst, Title: "数学", FileName: "数学.pdf",
	}})

	assert.Equal(t, []string{"小学"}, ix.Levels())

	got := ix.Filter(Criteria{Level: "小学", Subject: "数学", Grade: "一年级"})
	require.Len(t, got, 1)
	assert.Equal(t, "数学", got[0].Title)
}

func TestIndex_DistinctQueries(t *testing.T) {
	ix := NewIndex()
	ix.Replace(sampleEntries())

	assert.ElementsMatch(t, []string{"小学", "高中", "大学"}, ix.Levels())
	assert.ElementsMatch(t, []string{"数学", "语文"}, ix.Subjects("小学"))
	assert.ElementsMatch(t, []string{"一年级"}, ix.Grades("小学", "数学"))
	assert.Empty(t, ix.Subjects("不存在的学段"))
}

func TestIndex_FilterWildcards(t *testing.T) {
	ix := NewIndex()
	ix.Replace(sampleEntries())

	assert.Len(t, ix.Filter(Criteria{}), 4)
	assert.Len(t, ix.Filter(Criteria{Level: "小学"}), 2)
	assert.Len(t, ix.Filter(Criteria{Subject: "数学"}), 2)
	assert.Empty(t, ix.Filter(Criteria{Level: "小学", Subject: "物理"}))
}

func TestIndex_Stats(t *testing.T) {
	ix := NewIndex()
	ix.Replace(sampleEntries())

	stats := ix.Stats()
	assert.Equal(t, 4, stats.TotalEntries)
	assert.Equal(t, 3, stats.MainFiles)
	assert.Equal(t, 1, stats.SplitFiles)
	assert.Equal(t, 3, stats.DistinctLevels)
	assert.Equal(t, 3, stats.DistinctSubjects)
	// 人教版 + 未知出版社
	assert.Equal(t, 2, stats.DistinctPublisher)
}

func TestIndex_Search(t *testing.T) {
	ix := NewIndex()
	ix.Replace(sampleEntries())

	assert.Len(t, ix.Search("数学"), 3)
	assert.Len(t, ix.Search("人教"), 1)
	// 拉丁字母查询经 ASCII 折叠后也能命中中文标题。
	assert.NotEmpty(t, ix.Search("shu xue"))
	assert.Empty(t, ix.Search("不存在的关键词"))
	assert.Empty(t, ix.Search("   "))
}

func TestLoad_ParsesUpstreamFormat(t *testing.T) {
	data := `[
		{
			"level": "小学", "subject": "数学", "grade": "一年级",
			"semester": "first", "publisher": "未知出版社",
			"title": "数学一年级上册",
			"file_path": "小学/数学/数学一年级上册.pdf",
			"file_name": "数学一年级上册.pdf",
			"download_url": "https://raw.example.com/a.pdf",
			"international_url": "https://raw.example.com/a.pdf",
			"china_url": "https://cdn.example.com/a.pdf",
			"is_split": false, "part_number": null,
			"file_size": 1024, "jsdelivr_works": true
		},
		{
			"level": "大学", "subject": "高等数学", "grade": "course",
			"semester": "something-new", "publisher": "同济版",
			"title": "高等数学", "file_name": "高等数学.pdf.2",
			"is_split": true, "part_number": 2, "file_size": 2048
		}
	]`
	path := filepath.Join(t.TempDir(), "textbook-data.json")
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	entries, err := Load(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// 哨兵字符串在加载边界转换为显式可选类型。
	assert.False(t, entries[0].Publisher.Known)
	assert.Equal(t, models.UnknownPublisherSentinel, entries[0].Publisher.Display())
	assert.True(t, entries[0].CDNVerified())

	assert.True(t, entries[1].Publisher.Known)
	assert.Equal(t, "同济版", entries[1].Publisher.Name)
	assert.Equal(t, models.SemesterUnknown, entries[1].Semester)
	require.NotNil(t, entries[1].PartNumber)
	assert.Equal(t, 2, *entries[1].PartNumber)
	assert.False(t, entries[1].CDNVerified())
}

func TestLoad_EmptyAndMissingFiles(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(""), 0644))
	entries, err := Load(empty)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestLoadInto_ReplacesSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"level":"小学","subject":"数学","grade":"一年级","semester":"first","publisher":"未知出版社","title":"数学","file_name":"数学.pdf"}]`), 0644))

	ix := NewIndex()
	require.NoError(t, LoadInto(ix, path))
	assert.Equal(t, 1, ix.Len())

	// 重载失败保留旧快照。
	require.NoError(t, os.WriteFile(path, []byte("{invalid"), 0644))
	assert.Error(t, LoadInto(ix, path))
	assert.Equal(t, 1, ix.Len())
}

func TestWatch_ReloadsOnFileChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0644))

	ix := NewIndex()
	require.NoError(t, LoadInto(ix, path))
	require.Zero(t, ix.Len())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, Watch(ctx, ix, path))

	data := `[{"level":"小学","subject":"数学","grade":"一年级","semester":"first","publisher":"未知出版社","title":"数学","file_name":"数学.pdf"}]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	deadline := time.Now().Add(3 * time.Second)
	for ix.Len() == 0 {
		require.True(t, time.Now().Before(deadline), "监听器未在期限内重载索引")
		time.Sleep(20 * time.Millisecond)
	}
	assert.Equal(t, 1, ix.Len())
}
