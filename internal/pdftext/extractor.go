package pdftext

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/logger"
)

// DefaultMaxPages 默认提取页数上限
const DefaultMaxPages = 20

var pdfMagic = []byte("%PDF-")

// Extractor 从 PDF 二进制中提取纯文本，逐页加页码标记，超出页数上限的部分被截断。
type Extractor struct {
	maxPages int
}

// NewExtractor 创建提取器，maxPages <= 0 时使用默认上限。
func NewExtractor(maxPages int) *Extractor {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Extractor{maxPages: maxPages}
}

// Extract 解析 PDF 并返回带页标记的拼接文本。
// 非 PDF 或损坏的文件返回描述性错误。
func (e *Extractor) Extract(data []byte) (string, error) {
	if !bytes.HasPrefix(data, pdfMagic) {
		return "", fmt.Errorf("文件不是有效的 PDF（缺少 %%PDF 头）")
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("PDF 解析失败: %w", err)
	}

	total := r.NumPage()
	pages := total
	if pages > e.maxPages {
		logger.Log.Warnf("PDF 共 %d 页，超出上限，仅提取前 %d 页", total, e.maxPages)
		pages = e.maxPages
	}

	var sb strings.Builder
	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			// 个别页面解析失败不终止整体提取
			logger.Log.Warnf("第 %d 页文本提取失败: %v", i, err)
			continue
		}
		sb.WriteString(PageMarker(i))
		sb.WriteString("\n")
		sb.WriteString(strings.TrimSpace(text))
		sb.WriteString("\n\n")
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", fmt.Errorf("PDF 中未提取到任何文本")
	}
	return out, nil
}

// PageMarker 返回第 n 页的页码标记。
func PageMarker(n int) string {
	return fmt.Sprintf("【第%d页】", n)
}

// Truncate 将文本截断到 budget 个字符（按 rune 计），用于控制送入 LLM 的长度。
func Truncate(text string, budget int) string {
	if budget <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= budget {
		return text
	}
	return string(runes[:budget])
}
