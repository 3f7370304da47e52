package task

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"Textbook_Browser/pkg/catalog"
)

// TaskStatus 定义了任务可能的状态。
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusRunning   TaskStatus = "running"
	StatusCompleted TaskStatus = "completed"
	StatusFailed    TaskStatus = "failed"
)

// Task 结构体代表一次后台目录重载任务。
type Task struct {
	ID        string     `json:"id"`
	Status    TaskStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
	Entries   int        `json:"entries"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`

	dataPath string
}

// Manager 管理目录重载任务：同一时刻只允许一个重载在执行。
type Manager struct {
	tasks map[string]*Task
	mu    sync.RWMutex

	index *catalog.Index
}

// NewManager 创建任务管理器实例。
func NewManager(index *catalog.Index) *Manager {
	return &Manager{
		tasks: make(map[string]*Task),
		index: index,
	}
}

// StartReloadTask 创建一个目录重载任务并立即在后台启动。
// 已有重载在执行时拒绝新任务。
func (m *Manager) StartReloadTask(dataPath string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.tasks {
		if t.Status == StatusRunning || t.Status == StatusPending {
			return "", fmt.Errorf("另一个重载任务正在进行中 (ID: %s)，请等待其完成后再试", t.ID)
		}
	}

	taskID := uuid.New().String()
	newTask := &Task{
		ID:        taskID,
		Status:    StatusPending,
		StartTime: time.Now(),
		dataPath:  dataPath,
	}
	m.tasks[taskID] = newTask

	go m.runReload(newTask)

	return taskID, nil
}

// GetTaskStatus 根据任务ID检索任务状态。
// 返回的是锁内拍下的快照副本，后台重载对任务的后续修改不会影响它，
// 调用方可以在锁外安全地序列化。
func (m *Manager) GetTaskStatus(taskID string) (*Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, exists := m.tasks[taskID]
	if !exists {
		return nil, fmt.Errorf("找不到任务ID: %s", taskID)
	}
	snapshot := *t
	return &snapshot, nil
}

// runReload 执行具体的重载工作。失败时旧快照保持可用。
func (m *Manager) runReload(t *Task) {
	m.mu.Lock()
	t.Status = StatusRunning
	m.mu.Unlock()

	err := catalog.LoadInto(m.index, t.dataPath)

	m.mu.Lock()
	defer m.mu.Unlock()
	endTime := time.Now()
	t.EndTime = &endTime
	if err != nil {
		t.Status = StatusFailed
		t.Error = err.Error()
		return
	}
	t.Status = StatusCompleted
	t.Entries = m.index.Len()
}
