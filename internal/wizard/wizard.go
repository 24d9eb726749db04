package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/logger"
	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/model"
	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/scoring"
)

// ErrInvalidState 动作与当前视图状态不匹配时返回。
// 状态不发生任何变化，以此保证外部调用的单飞语义。
var ErrInvalidState = errors.New("action not allowed in current state")

// PDFMime 上传文件要求的 MIME 类型
const PDFMime = "application/pdf"

// TextExtractor PDF 文本提取
type TextExtractor interface {
	Extract(data []byte) (string, error)
}

// RequirementExtractor 需求提取
type RequirementExtractor interface {
	ExtractRequirements(ctx context.Context, text string) (*model.Extraction, error)
}

// MarketResearcher 市场调研
type MarketResearcher interface {
	MarketResearch(ctx context.Context, reqs []model.Requirement) (*model.SearchResult, error)
}

// SchemeGenerator 配色方案生成
type SchemeGenerator interface {
	GenerateSchemes(ctx context.Context, reqs []model.Requirement, sr *model.SearchResult) ([]model.ColorScheme, error)
}

// PreviewGenerator 预览图生成（后台任务）
type PreviewGenerator interface {
	GeneratePreview(ctx context.Context, scheme model.ColorScheme, contextHint string) (string, error)
}

// Exporter 报告导出
type Exporter interface {
	Export(snap Snapshot) (data []byte, filename string, err error)
}

// Options 向导行为配置
type Options struct {
	MaxUploadBytes int64 // 上传大小上限，<=0 表示不限制
	ShowSearchView bool  // 搜索变体：调研完成后先展示结果视图再生成方案
}

// Wizard 向导控制器：按固定顺序驱动各外部步骤，
// 每个依赖外部调用的前进转移都遵循同一契约——
// 先写入加载提示，调用成功则携带结果前进，失败则退回上一步并附上错误信息，
// 已确认的数据不被破坏。
type Wizard struct {
	extractor  TextExtractor
	analyzer   RequirementExtractor
	researcher MarketResearcher
	generator  SchemeGenerator
	previewer  PreviewGenerator // 可为 nil，预览图功能停用
	exporter   Exporter
	opts       Options
}

// New 创建向导控制器
func New(extractor TextExtractor, analyzer RequirementExtractor, researcher MarketResearcher,
	generator SchemeGenerator, previewer PreviewGenerator, exporter Exporter, opts Options) *Wizard {
	return &Wizard{
		extractor:  extractor,
		analyzer:   analyzer,
		researcher: researcher,
		generator:  generator,
		previewer:  previewer,
		exporter:   exporter,
		opts:       opts,
	}
}

// Upload 上传阶段的输入
type Upload struct {
	Name string
	MIME string
	Size int64
	Data []byte
}

// UploadDocument 处理上传：校验通过后进入文档解析，
// 任一步失败都退回上传视图并记录错误，不调用后续外部服务。
func (w *Wizard) UploadDocument(ctx context.Context, s *Session, file Upload) error {
	s.mu.Lock()
	if s.State != StateUpload {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrInvalidState, s.State)
	}

	// 输入校验在任何外部调用之前完成，失败时停留在上传视图
	if file.MIME != PDFMime {
		s.ErrorMessage = "请上传 PDF 格式的定位报告"
		s.mu.Unlock()
		return fmt.Errorf("unsupported file type: %s", file.MIME)
	}
	if w.opts.MaxUploadBytes > 0 && file.Size > w.opts.MaxUploadBytes {
		s.ErrorMessage = fmt.Sprintf("文件超过大小上限（%d MB）", w.opts.MaxUploadBytes/(1<<20))
		s.mu.Unlock()
		return fmt.Errorf("file too large: %d bytes", file.Size)
	}

	s.State = StateAnalyzing
	s.LoadingMessage = "正在解析定位报告……"
	s.ErrorMessage = ""
	s.mu.Unlock()

	text, err := w.extractor.Extract(file.Data)
	if err != nil {
		w.fail(s, StateAnalyzing, StateUpload, "文档解析失败："+err.Error())
		return err
	}

	extraction, err := w.analyzer.ExtractRequirements(ctx, text)
	if err != nil {
		w.fail(s, StateAnalyzing, StateUpload, "需求提取失败，请重新上传。")
		return err
	}

	s.mu.Lock()
	if s.State != StateAnalyzing {
		// 会话在解析期间被重置，丢弃过期结果
		s.mu.Unlock()
		return fmt.Errorf("session left state %s during analysis", StateAnalyzing)
	}
	s.CustomerName = extraction.CustomerName
	s.Requirements = extraction.Requirements
	s.State = StateConfirm
	s.LoadingMessage = ""
	s.mu.Unlock()
	logger.Log.Infof("会话 [%s] 完成文档解析: 客户 [%s]，%d 条需求", s.ID, extraction.CustomerName, len(extraction.Requirements))
	return nil
}

// ConfirmRequirements 用户确认需求后进入市场调研。
// 搜索变体在调研成功后停在结果视图；模拟变体直接继续生成方案。
func (w *Wizard) ConfirmRequirements(ctx context.Context, s *Session) error {
	s.mu.Lock()
	if s.State != StateConfirm {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrInvalidState, s.State)
	}
	if len(s.Requirements) == 0 {
		s.ErrorMessage = "需求列表为空，无法继续"
		s.mu.Unlock()
		return fmt.Errorf("empty requirement list")
	}
	reqs := append([]model.Requirement(nil), s.Requirements...)
	s.State = StateSearching
	s.LoadingMessage = "正在进行市场调研……"
	s.ErrorMessage = ""
	s.mu.Unlock()

	sr, err := w.researcher.MarketResearch(ctx, reqs)
	if err != nil {
		w.fail(s, StateSearching, StateConfirm, "市场调研失败，请重试。")
		return err
	}

	s.mu.Lock()
	if s.State != StateSearching {
		s.mu.Unlock()
		return fmt.Errorf("session left state %s during research", StateSearching)
	}
	s.Search = sr
	if w.opts.ShowSearchView {
		s.State = StateViewSearch
		s.LoadingMessage = ""
		s.mu.Unlock()
		return nil
	}
	s.LoadingMessage = "正在生成配色方案……"
	s.mu.Unlock()

	return w.generate(ctx, s, StateConfirm)
}

// ProceedToSchemes 搜索变体中，用户浏览完调研结果后触发方案生成。
func (w *Wizard) ProceedToSchemes(ctx context.Context, s *Session) error {
	s.mu.Lock()
	if s.State != StateViewSearch {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrInvalidState, s.State)
	}
	s.State = StateSearching
	s.LoadingMessage = "正在生成配色方案……"
	s.ErrorMessage = ""
	s.mu.Unlock()

	return w.generate(ctx, s, StateViewSearch)
}

// generate 调用方案生成并完成排序。失败退回 fallback 视图，
// 已确认的需求与调研数据保持不变。
func (w *Wizard) generate(ctx context.Context, s *Session, fallback State) error {
	s.mu.Lock()
	reqs := append([]model.Requirement(nil), s.Requirements...)
	sr := s.Search
	s.mu.Unlock()

	schemes, err := w.generator.GenerateSchemes(ctx, reqs, sr)
	if err != nil {
		w.fail(s, StateSearching, fallback, "方案生成失败，请重试。")
		return err
	}

	best, err := scoring.Best(schemes)
	if err != nil {
		w.fail(s, StateSearching, fallback, "方案生成失败，请重试。")
		return err
	}

	s.mu.Lock()
	if s.State != StateSearching {
		s.mu.Unlock()
		return fmt.Errorf("session left state %s during generation", StateSearching)
	}
	s.Schemes = schemes
	s.BestIndex = best
	s.State = StateComparing
	s.LoadingMessage = ""
	s.mu.Unlock()
	logger.Log.Infof("会话 [%s] 生成 %d 套方案，最优为 [%s]", s.ID, len(schemes), schemes[best].Name.Primary())
	return nil
}

// ShowResult 从对比视图进入结果视图。selected >= 0 时覆盖排序选出的方案。
// 若尚无预览图则发起一次后台生成，不阻塞本次转移。
func (w *Wizard) ShowResult(s *Session, selected int) error {
	s.mu.Lock()
	if s.State != StateComparing {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrInvalidState, s.State)
	}
	if selected >= 0 {
		if selected >= len(s.Schemes) {
			s.mu.Unlock()
			return fmt.Errorf("scheme index out of range: %d", selected)
		}
		s.BestIndex = selected
	}
	s.State = StateResult
	s.ErrorMessage = ""

	dispatch := w.previewer != nil && s.PreviewImage == "" && !s.ImageBusy
	if dispatch {
		s.ImageBusy = true
		s.ImageError = ""
	}
	scheme := s.Schemes[s.BestIndex]
	hint := previewHint(s.Requirements)
	s.mu.Unlock()

	if dispatch {
		go w.generatePreview(s, scheme, hint)
	}
	return nil
}

// generatePreview 后台生成预览图。独立于主流程，
// 使用派生自 Background 的上下文，不随触发它的请求取消。
func (w *Wizard) generatePreview(s *Session, scheme model.ColorScheme, hint string) {
	img, err := w.previewer.GeneratePreview(context.Background(), scheme, hint)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ImageBusy {
		// 会话在生成期间被重置，丢弃过期的图像
		return
	}
	s.ImageBusy = false
	if err != nil {
		logger.Log.Errorf("会话 [%s] 预览图生成失败: %v", s.ID, err)
		s.ImageError = err.Error()
		return
	}
	s.PreviewImage = img
}

// Export 导出报告。失败只记录错误信息，会话保持在结果视图。
func (w *Wizard) Export(s *Session) ([]byte, string, error) {
	s.mu.Lock()
	if s.State != StateResult {
		s.mu.Unlock()
		return nil, "", fmt.Errorf("%w: %s", ErrInvalidState, s.State)
	}
	if s.ExportBusy {
		s.mu.Unlock()
		return nil, "", fmt.Errorf("export already in progress")
	}
	s.ExportBusy = true
	snap := s.snapshotLocked()
	s.mu.Unlock()

	data, filename, err := w.exporter.Export(snap)

	s.mu.Lock()
	s.ExportBusy = false
	if err != nil {
		s.ErrorMessage = "报告导出失败：" + err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		return nil, "", err
	}
	return data, filename, nil
}

// Reset 将会话数据恢复到初始状态并回到上传视图。
func (w *Wizard) Reset(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State = StateUpload
	s.CustomerName = ""
	s.Requirements = nil
	s.Search = nil
	s.Schemes = nil
	s.BestIndex = -1
	s.LoadingMessage = ""
	s.ErrorMessage = ""
	s.PreviewImage = ""
	s.ImageBusy = false
	s.ImageError = ""
	s.ExportBusy = false
}

// fail 把会话从 from 退回 fallback 视图并附上错误信息。
// 会话已不在 from（例如调用期间被重置）时不做任何改动。
func (w *Wizard) fail(s *Session, from, fallback State, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State != from {
		return
	}
	s.State = fallback
	s.LoadingMessage = ""
	s.ErrorMessage = msg
}

// previewHint 用前几条需求拼出预览图的场景描述
func previewHint(reqs []model.Requirement) string {
	var parts []string
	for i, r := range reqs {
		if i >= 2 {
			break
		}
		parts = append(parts, r.Text)
	}
	return strings.Join(parts, "；")
}
