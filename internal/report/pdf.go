package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/model"
	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/scoring"
	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/wizard"
)

// A4 纵向页面，单位毫米
const (
	pageLeft    = 15.0
	pageRight   = 195.0
	contentW    = pageRight - pageLeft
	overflowY   = 260.0 // 超过该纵坐标则换页
	swatchW     = 50.0
	swatchH     = 25.0
	swatchGap   = 10.0
	exportSufix = "_配色方案报告.pdf"
)

// PDFExporter 把选定方案排版成 A4 PDF 报告。
// 内置核心字体仅覆盖 Latin-1，因此版面使用英文字段（BiText.En），
// 完整的双语内容由 HTML 报告承载。
type PDFExporter struct{}

// NewPDFExporter 创建导出器
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

var _ wizard.Exporter = (*PDFExporter)(nil)

// Export 实现 wizard.Exporter
func (e *PDFExporter) Export(snap wizard.Snapshot) ([]byte, string, error) {
	scheme, ok := snap.BestScheme()
	if !ok {
		return nil, "", fmt.Errorf("没有可导出的方案")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageLeft, 20, 210-pageRight)
	pdf.SetAutoPageBreak(false, 20)
	pdf.AddPage()

	// 标题区
	pdf.SetFont("Helvetica", "B", 20)
	title := latin1(snap.CustomerName)
	if title == "" {
		title = "Brand Color Scheme"
	}
	pdf.CellFormat(contentW, 10, title+" - Color Scheme Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(contentW, 6, time.Now().Format("2006-01-02"), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	// 方案名与说明
	pdf.SetFont("Helvetica", "B", 14)
	name := latin1(scheme.Name.En)
	if name == "" {
		name = "Recommended Scheme"
	}
	pdf.CellFormat(contentW, 8, name, "", 1, "L", false, 0, "")
	if desc := latin1(scheme.Description.En); desc != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(contentW, 5, desc, "", "L", false)
	}
	pdf.Ln(4)

	// 色板：三个带十六进制标签的色块
	e.drawSwatches(pdf, scheme.Palette)

	// 评分表
	e.ensureSpace(pdf, 60)
	e.drawScoreTable(pdf, scheme)

	// 应用建议
	if advice := latin1(scheme.UsageAdvice.En); advice != "" {
		e.ensureSpace(pdf, 30)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(contentW, 8, "Usage Advice", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(contentW, 5, advice, "", "L", false)
		pdf.Ln(4)
	}

	// SWOT
	if scheme.SWOT != nil {
		e.ensureSpace(pdf, 40)
		e.drawSWOT(pdf, scheme.SWOT)
	}

	// 引用来源
	if len(scheme.Sources) > 0 {
		e.ensureSpace(pdf, 10+float64(len(scheme.Sources))*5)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(contentW, 8, "Sources", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		for _, src := range scheme.Sources {
			line := latin1(src.Title)
			if line == "" {
				line = src.URL
			} else {
				line += "  " + src.URL
			}
			pdf.MultiCell(contentW, 5, line, "", "L", false)
		}
	}

	if pdf.Err() {
		return nil, "", fmt.Errorf("PDF 排版失败: %v", pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("PDF 输出失败: %w", err)
	}
	return buf.Bytes(), ExportFilename(snap.CustomerName), nil
}

// drawSwatches 在显式坐标上绘制三个纯色矩形与色值标签
func (e *PDFExporter) drawSwatches(pdf *fpdf.Fpdf, p model.Palette) {
	labels := []struct {
		title string
		hex   string
	}{
		{"Primary", p.Primary},
		{"Secondary", p.Secondary},
		{"Accent", p.Accent},
	}

	y := pdf.GetY()
	for i, l := range labels {
		x := pageLeft + float64(i)*(swatchW+swatchGap)
		r, g, b := hexToRGB(l.hex)
		pdf.SetFillColor(r, g, b)
		pdf.Rect(x, y, swatchW, swatchH, "F")
		pdf.SetDrawColor(200, 200, 200)
		pdf.Rect(x, y, swatchW, swatchH, "D")

		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetXY(x, y+swatchH+1)
		pdf.CellFormat(swatchW, 4, l.title, "", 2, "C", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetX(x)
		pdf.CellFormat(swatchW, 4, strings.ToUpper(l.hex), "", 0, "C", false, 0, "")
	}
	pdf.SetXY(pageLeft, y+swatchH+12)
}

// drawScoreTable 输出五项子评分、固定权重与综合分
func (e *PDFExporter) drawScoreTable(pdf *fpdf.Fpdf, scheme model.ColorScheme) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 8, "Evaluation", "", 1, "L", false, 0, "")

	rows := []struct {
		label  string
		weight float64
		value  float64
	}{
		{"Requirement match", scoring.WeightMatch, scheme.Scores.Match},
		{"Trend fit", scoring.WeightTrend, scheme.Scores.Trend},
		{"Market acceptance", scoring.WeightMarket, scheme.Scores.Market},
		{"Innovation", scoring.WeightInnovation, scheme.Scores.Innovation},
		{"Color harmony", scoring.WeightHarmony, scheme.Scores.Harmony},
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(90, 7, "Criterion", "1", 0, "L", true, 0, "")
	pdf.CellFormat(45, 7, "Weight", "1", 0, "C", true, 0, "")
	pdf.CellFormat(45, 7, "Score (0-10)", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range rows {
		pdf.CellFormat(90, 7, row.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 7, fmt.Sprintf("%.0f%%", row.weight*100), "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 7, fmt.Sprintf("%.1f", row.value), "1", 1, "C", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(135, 8, "Weighted score", "1", 0, "L", false, 0, "")
	pdf.CellFormat(45, 8, fmt.Sprintf("%.2f", scheme.WeightedScore), "1", 1, "C", false, 0, "")
	pdf.Ln(4)
}

func (e *PDFExporter) drawSWOT(pdf *fpdf.Fpdf, swot *model.SWOT) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 8, "Strengths & Weaknesses", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, s := range swot.Strengths {
		if line := latin1(s); line != "" {
			pdf.MultiCell(contentW, 5, "+ "+line, "", "L", false)
		}
	}
	for _, s := range swot.Weaknesses {
		if line := latin1(s); line != "" {
			pdf.MultiCell(contentW, 5, "- "+line, "", "L", false)
		}
	}
	pdf.Ln(4)
}

// ensureSpace 剩余高度不足时翻页，简单的单次溢出分页
func (e *PDFExporter) ensureSpace(pdf *fpdf.Fpdf, need float64) {
	if pdf.GetY()+need > overflowY {
		pdf.AddPage()
	}
}

// ExportFilename 由客户名派生导出文件名：空白折叠为下划线，加固定后缀。
func ExportFilename(customerName string) string {
	normalized := strings.Join(strings.Fields(customerName), "_")
	if normalized == "" {
		normalized = "未命名客户"
	}
	return normalized + exportSufix
}

// hexToRGB 解析 #RRGGBB，非法输入回退为中性灰
func hexToRGB(s string) (int, int, int) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return 128, 128, 128
	}
	var r, g, b int
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return 128, 128, 128
	}
	return r, g, b
}

// latin1 过滤出内置核心字体能渲染的字符
func latin1(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r < 256 {
			sb.WriteRune(r)
		}
	}
	return strings.TrimSpace(sb.String())
}
