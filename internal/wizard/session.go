package wizard

import (
	"sync"
	"time"

	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/model"
)

// State 向导视图状态。流程为一条线性主路径，
// Searching 同时承担市场调研与方案生成两次调用的加载视图，
// 由 LoadingMessage 区分当前在等待哪一步。
type State string

const (
	StateUpload     State = "upload"               // 等待上传定位报告
	StateAnalyzing  State = "analyzing_document"   // 文本提取 + 需求提取进行中
	StateConfirm    State = "confirm_requirements" // 等待用户确认需求
	StateSearching  State = "searching"            // 市场调研或方案生成进行中
	StateViewSearch State = "view_search_results"  // 展示市场调研结果（搜索变体）
	StateComparing  State = "comparing"            // 方案对比视图
	StateResult     State = "result"               // 最终报告视图
)

// Session 单次向导会话的全部状态。由向导控制器独占修改，
// 互斥锁只用于隔离 HTTP 处理器与后台预览图协程的交错访问。
type Session struct {
	mu sync.Mutex

	ID        string
	CreatedAt time.Time

	State          State
	CustomerName   string
	Requirements   []model.Requirement
	Search         *model.SearchResult
	Schemes        []model.ColorScheme
	BestIndex      int // -1 表示尚未选出
	LoadingMessage string
	ErrorMessage   string

	// 预览图为独立的后台任务，用独立的状态字段观察
	PreviewImage string
	ImageBusy    bool
	ImageError   string

	ExportBusy bool
}

// NewSession 创建处于初始视图的新会话
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		State:     StateUpload,
		BestIndex: -1,
	}
}

// Snapshot 会话的只读副本，供渲染与序列化使用。
type Snapshot struct {
	ID             string               `json:"id"`
	State          State                `json:"state"`
	CustomerName   string               `json:"customer_name,omitempty"`
	Requirements   []model.Requirement  `json:"requirements,omitempty"`
	Search         *model.SearchResult  `json:"search,omitempty"`
	Schemes        []model.ColorScheme  `json:"schemes,omitempty"`
	BestIndex      int                  `json:"best_index"`
	LoadingMessage string               `json:"loading_message,omitempty"`
	ErrorMessage   string               `json:"error_message,omitempty"`
	PreviewImage   string               `json:"preview_image,omitempty"`
	ImageBusy      bool                 `json:"image_busy"`
	ImageError     string               `json:"image_error,omitempty"`
	ExportBusy     bool                 `json:"export_busy"`
}

// Snapshot 在锁保护下拷贝当前状态
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:             s.ID,
		State:          s.State,
		CustomerName:   s.CustomerName,
		Search:         s.Search,
		BestIndex:      s.BestIndex,
		LoadingMessage: s.LoadingMessage,
		ErrorMessage:   s.ErrorMessage,
		PreviewImage:   s.PreviewImage,
		ImageBusy:      s.ImageBusy,
		ImageError:     s.ImageError,
		ExportBusy:     s.ExportBusy,
	}
	snap.Requirements = append([]model.Requirement(nil), s.Requirements...)
	snap.Schemes = append([]model.ColorScheme(nil), s.Schemes...)
	return snap
}

// BestScheme 返回当前选出的最优方案副本，未选出时 ok 为 false。
func (s *Snapshot) BestScheme() (model.ColorScheme, bool) {
	if s.BestIndex < 0 || s.BestIndex >= len(s.Schemes) {
		return model.ColorScheme{}, false
	}
	return s.Schemes[s.BestIndex], true
}
