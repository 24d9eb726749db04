package wizard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/model"
)

// mockExtractor 模拟 PDF 文本提取
type mockExtractor struct {
	text  string
	err   error
	calls int
}

func (m *mockExtractor) Extract(data []byte) (string, error) {
	m.calls++
	return m.text, m.err
}

// mockAnalyzer 模拟需求提取
type mockAnalyzer struct {
	out *model.Extraction
	err error
}

func (m *mockAnalyzer) ExtractRequirements(ctx context.Context, text string) (*model.Extraction, error) {
	return m.out, m.err
}

// mockResearcher 模拟市场调研
type mockResearcher struct {
	out *model.SearchResult
	err error
}

func (m *mockResearcher) MarketResearch(ctx context.Context, reqs []model.Requirement) (*model.SearchResult, error) {
	return m.out, m.err
}

// mockGenerator 模拟方案生成，started/block 用于和测试协程同步
type mockGenerator struct {
	out     []model.ColorScheme
	err     error
	started chan struct{}
	block   chan struct{}
}

func (m *mockGenerator) GenerateSchemes(ctx context.Context, reqs []model.Requirement, sr *model.SearchResult) ([]model.ColorScheme, error) {
	if m.started != nil {
		close(m.started)
	}
	if m.block != nil {
		<-m.block
	}
	return m.out, m.err
}

// mockPreviewer 模拟预览图生成，block 不为空时先等待
type mockPreviewer struct {
	img   string
	err   error
	block chan struct{}
}

func (m *mockPreviewer) GeneratePreview(ctx context.Context, scheme model.ColorScheme, hint string) (string, error) {
	if m.block != nil {
		<-m.block
	}
	return m.img, m.err
}

// mockExporter 模拟报告导出
type mockExporter struct {
	data []byte
	name string
	err  error
}

func (m *mockExporter) Export(snap Snapshot) ([]byte, string, error) {
	return m.data, m.name, m.err
}

func okExtraction() *model.Extraction {
	return &model.Extraction{
		CustomerName: "云溪茶舍",
		Requirements: []model.Requirement{
			{ID: "r1", Text: "高端新中式茶饮品牌", SourcePage: 1},
			{ID: "r2", Text: "偏好自然低饱和色", SourcePage: 3},
		},
	}
}

func okSchemes() []model.ColorScheme {
	return []model.ColorScheme{
		{ID: "s1", WeightedScore: 7.00},
		{ID: "s2", WeightedScore: 8.50},
		{ID: "s3", WeightedScore: 8.50},
		{ID: "s4", WeightedScore: 6.00},
	}
}

func pdfUpload() Upload {
	return Upload{Name: "report.pdf", MIME: PDFMime, Size: 1024, Data: []byte("%PDF-1.4 ...")}
}

type fixture struct {
	extractor  *mockExtractor
	analyzer   *mockAnalyzer
	researcher *mockResearcher
	generator  *mockGenerator
	previewer  *mockPreviewer
	exporter   *mockExporter
}

func newFixture() *fixture {
	return &fixture{
		extractor:  &mockExtractor{text: "【第1页】定位报告全文"},
		analyzer:   &mockAnalyzer{out: okExtraction()},
		researcher: &mockResearcher{out: &model.SearchResult{Keywords: []string{"新中式"}}},
		generator:  &mockGenerator{out: okSchemes()},
		previewer:  &mockPreviewer{img: "data:image/png;base64,xxxx"},
		exporter:   &mockExporter{data: []byte("%PDF"), name: "云溪茶舍_配色方案报告.pdf"},
	}
}

func (f *fixture) wizard(opts Options) *Wizard {
	return New(f.extractor, f.analyzer, f.researcher, f.generator, f.previewer, f.exporter, opts)
}

func TestUploadRejectsNonPDF(t *testing.T) {
	f := newFixture()
	w := f.wizard(Options{MaxUploadBytes: 20 << 20})
	s := NewSession("t")

	err := w.UploadDocument(context.Background(), s, Upload{Name: "a.txt", MIME: "text/plain", Size: 10})
	if err == nil {
		t.Fatal("非 PDF 文件应被拒绝")
	}

	snap := s.Snapshot()
	if snap.State != StateUpload {
		t.Errorf("state = %s, want %s", snap.State, StateUpload)
	}
	if snap.ErrorMessage == "" {
		t.Error("应记录用户可见的错误信息")
	}
	if len(snap.Requirements) != 0 {
		t.Errorf("requirements = %d, want 0", len(snap.Requirements))
	}
	if f.extractor.calls != 0 {
		t.Error("校验失败时不应调用文本提取")
	}
}

func TestUploadRejectsOversize(t *testing.T) {
	f := newFixture()
	w := f.wizard(Options{MaxUploadBytes: 20 << 20})
	s := NewSession("t")

	err := w.UploadDocument(context.Background(), s, Upload{Name: "big.pdf", MIME: PDFMime, Size: 21 << 20})
	if err == nil {
		t.Fatal("超限文件应被拒绝")
	}
	if f.extractor.calls != 0 {
		t.Error("校验失败时不应调用文本提取")
	}
	if snap := s.Snapshot(); snap.State != StateUpload || snap.ErrorMessage == "" {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestUploadAnalyzeFailureReturnsToUpload(t *testing.T) {
	f := newFixture()
	f.analyzer.out = nil
	f.analyzer.err = errors.New("llm unavailable")
	w := f.wizard(Options{})
	s := NewSession("t")

	if err := w.UploadDocument(context.Background(), s, pdfUpload()); err == nil {
		t.Fatal("需求提取失败时 UploadDocument 应返回错误")
	}

	snap := s.Snapshot()
	if snap.State != StateUpload {
		t.Errorf("state = %s, want %s", snap.State, StateUpload)
	}
	if len(snap.Requirements) != 0 {
		t.Error("失败路径不应写入需求")
	}
	if snap.ErrorMessage == "" {
		t.Error("失败路径应写入错误信息")
	}
}

func TestUploadSuccess(t *testing.T) {
	f := newFixture()
	w := f.wizard(Options{})
	s := NewSession("t")

	if err := w.UploadDocument(context.Background(), s, pdfUpload()); err != nil {
		t.Fatalf("UploadDocument() error = %v", err)
	}

	snap := s.Snapshot()
	if snap.State != StateConfirm {
		t.Errorf("state = %s, want %s", snap.State, StateConfirm)
	}
	if snap.CustomerName != "云溪茶舍" || len(snap.Requirements) != 2 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.LoadingMessage != "" || snap.ErrorMessage != "" {
		t.Error("成功后应清空加载与错误信息")
	}
}

func TestConfirmSearchVariant(t *testing.T) {
	f := newFixture()
	w := f.wizard(Options{ShowSearchView: true})
	s := NewSession("t")
	mustReachConfirm(t, w, s)

	if err := w.ConfirmRequirements(context.Background(), s); err != nil {
		t.Fatalf("ConfirmRequirements() error = %v", err)
	}
	if snap := s.Snapshot(); snap.State != StateViewSearch || snap.Search == nil {
		t.Errorf("snapshot = %+v", snap)
	}

	if err := w.ProceedToSchemes(context.Background(), s); err != nil {
		t.Fatalf("ProceedToSchemes() error = %v", err)
	}
	snap := s.Snapshot()
	if snap.State != StateComparing {
		t.Errorf("state = %s, want %s", snap.State, StateComparing)
	}
	// 并列最高分取先出现者
	if snap.BestIndex != 1 {
		t.Errorf("BestIndex = %d, want 1", snap.BestIndex)
	}
}

func TestConfirmSimulatedVariant(t *testing.T) {
	f := newFixture()
	w := f.wizard(Options{ShowSearchView: false})
	s := NewSession("t")
	mustReachConfirm(t, w, s)

	if err := w.ConfirmRequirements(context.Background(), s); err != nil {
		t.Fatalf("ConfirmRequirements() error = %v", err)
	}
	// 模拟变体跳过搜索结果视图，直接到方案对比
	if snap := s.Snapshot(); snap.State != StateComparing {
		t.Errorf("state = %s, want %s", snap.State, StateComparing)
	}
}

func TestResearchFailureReturnsToConfirm(t *testing.T) {
	f := newFixture()
	f.researcher.out = nil
	f.researcher.err = errors.New("search down")
	w := f.wizard(Options{ShowSearchView: true})
	s := NewSession("t")
	mustReachConfirm(t, w, s)

	if err := w.ConfirmRequirements(context.Background(), s); err == nil {
		t.Fatal("调研失败时应返回错误")
	}

	snap := s.Snapshot()
	if snap.State != StateConfirm {
		t.Errorf("state = %s, want %s", snap.State, StateConfirm)
	}
	// 已确认的需求保持不变
	if len(snap.Requirements) != 2 {
		t.Errorf("requirements = %d, want 2", len(snap.Requirements))
	}
}

func TestGenerationFailurePreservesConfirmedData(t *testing.T) {
	f := newFixture()
	f.generator.out = nil
	f.generator.err = errors.New("llm error")
	w := f.wizard(Options{ShowSearchView: true})
	s := NewSession("t")
	mustReachConfirm(t, w, s)

	if err := w.ConfirmRequirements(context.Background(), s); err != nil {
		t.Fatalf("ConfirmRequirements() error = %v", err)
	}
	if err := w.ProceedToSchemes(context.Background(), s); err == nil {
		t.Fatal("生成失败时应返回错误")
	}

	snap := s.Snapshot()
	// 退回搜索结果视图，需求与调研数据原样保留，方案列表未被改动
	if snap.State != StateViewSearch {
		t.Errorf("state = %s, want %s", snap.State, StateViewSearch)
	}
	if len(snap.Requirements) != 2 || snap.Search == nil {
		t.Error("失败路径破坏了已确认的数据")
	}
	if len(snap.Schemes) != 0 {
		t.Errorf("schemes = %d, want 0", len(snap.Schemes))
	}
	if snap.ErrorMessage == "" {
		t.Error("失败路径应写入错误信息")
	}
}

func TestShowResultDispatchesPreviewWithoutBlocking(t *testing.T) {
	f := newFixture()
	f.previewer.block = make(chan struct{})
	w := f.wizard(Options{})
	s := NewSession("t")
	mustReachComparing(t, w, s)

	if err := w.ShowResult(s, -1); err != nil {
		t.Fatalf("ShowResult() error = %v", err)
	}

	// 预览图仍在生成中，但状态转移不被阻塞
	snap := s.Snapshot()
	if snap.State != StateResult {
		t.Errorf("state = %s, want %s", snap.State, StateResult)
	}
	if !snap.ImageBusy {
		t.Error("后台任务进行中 ImageBusy 应为 true")
	}

	close(f.previewer.block)
	waitFor(t, func() bool {
		snap := s.Snapshot()
		return !snap.ImageBusy && snap.PreviewImage != ""
	})
}

func TestShowResultSelectedOverride(t *testing.T) {
	f := newFixture()
	w := f.wizard(Options{})
	s := NewSession("t")
	mustReachComparing(t, w, s)

	if err := w.ShowResult(s, 3); err != nil {
		t.Fatalf("ShowResult() error = %v", err)
	}
	if snap := s.Snapshot(); snap.BestIndex != 3 {
		t.Errorf("BestIndex = %d, want 3", snap.BestIndex)
	}
}

func TestExportFailureKeepsResultState(t *testing.T) {
	f := newFixture()
	f.exporter.data = nil
	f.exporter.err = errors.New("disk full")
	w := f.wizard(Options{})
	s := NewSession("t")
	mustReachResult(t, w, s)

	if _, _, err := w.Export(s); err == nil {
		t.Fatal("导出失败时应返回错误")
	}

	snap := s.Snapshot()
	if snap.State != StateResult {
		t.Errorf("state = %s, want %s", snap.State, StateResult)
	}
	if snap.ExportBusy {
		t.Error("导出结束后 ExportBusy 应复位")
	}
	if snap.ErrorMessage == "" {
		t.Error("导出失败应写入错误信息")
	}
}

func TestExportSuccess(t *testing.T) {
	f := newFixture()
	w := f.wizard(Options{})
	s := NewSession("t")
	mustReachResult(t, w, s)

	data, name, err := w.Export(s)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(data) == 0 || name == "" {
		t.Errorf("data = %d bytes, name = %q", len(data), name)
	}
}

func TestResetRestoresInitialData(t *testing.T) {
	f := newFixture()
	w := f.wizard(Options{})
	s := NewSession("t")
	mustReachResult(t, w, s)
	waitFor(t, func() bool { return !s.Snapshot().ImageBusy })

	w.Reset(s)

	snap := s.Snapshot()
	if snap.State != StateUpload {
		t.Errorf("state = %s, want %s", snap.State, StateUpload)
	}
	if snap.CustomerName != "" || len(snap.Requirements) != 0 || len(snap.Schemes) != 0 ||
		snap.BestIndex != -1 || snap.PreviewImage != "" || snap.Search != nil {
		t.Errorf("reset 后数据未清空: %+v", snap)
	}
}

func TestResetDuringGenerationWins(t *testing.T) {
	f := newFixture()
	f.generator.started = make(chan struct{})
	f.generator.block = make(chan struct{})
	w := f.wizard(Options{})
	s := NewSession("t")
	mustReachConfirm(t, w, s)

	done := make(chan error, 1)
	go func() { done <- w.ConfirmRequirements(context.Background(), s) }()

	// 等生成开始后重置会话，再放行过期的生成调用
	<-f.generator.started
	w.Reset(s)
	close(f.generator.block)

	if err := <-done; err == nil {
		t.Error("被重置的会话完成生成时应返回错误")
	}

	snap := s.Snapshot()
	if snap.State != StateUpload {
		t.Errorf("state = %s, want %s", snap.State, StateUpload)
	}
	if len(snap.Schemes) != 0 || snap.BestIndex != -1 {
		t.Errorf("过期的生成结果覆盖了重置后的会话: %+v", snap)
	}
}

func TestResetDuringPreviewDiscardsImage(t *testing.T) {
	f := newFixture()
	f.previewer.block = make(chan struct{})
	w := f.wizard(Options{})
	s := NewSession("t")
	mustReachResult(t, w, s)

	w.Reset(s)
	close(f.previewer.block)

	// 后台协程完成后其结果必须被丢弃
	time.Sleep(50 * time.Millisecond)
	snap := s.Snapshot()
	if snap.State != StateUpload || snap.PreviewImage != "" || snap.ImageBusy {
		t.Errorf("过期的预览图被写入重置后的会话: %+v", snap)
	}
}

func TestActionRejectedInWrongState(t *testing.T) {
	f := newFixture()
	w := f.wizard(Options{})
	s := NewSession("t")

	if err := w.ConfirmRequirements(context.Background(), s); !errors.Is(err, ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
	if err := w.ShowResult(s, -1); !errors.Is(err, ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
	if _, _, err := w.Export(s); !errors.Is(err, ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}

// --- helpers ---

func mustReachConfirm(t *testing.T, w *Wizard, s *Session) {
	t.Helper()
	if err := w.UploadDocument(context.Background(), s, pdfUpload()); err != nil {
		t.Fatalf("UploadDocument() error = %v", err)
	}
}

func mustReachComparing(t *testing.T, w *Wizard, s *Session) {
	t.Helper()
	mustReachConfirm(t, w, s)
	if err := w.ConfirmRequirements(context.Background(), s); err != nil {
		t.Fatalf("ConfirmRequirements() error = %v", err)
	}
}

func mustReachResult(t *testing.T, w *Wizard, s *Session) {
	t.Helper()
	mustReachComparing(t, w, s)
	if err := w.ShowResult(s, -1); err != nil {
		t.Fatalf("ShowResult() error = %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("等待后台任务完成超时")
}
