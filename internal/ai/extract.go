package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/logger"
	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/model"
	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/pdftext"
)

const extractSystemPrompt = "你是一个 JSON 生成器。请只输出 JSON 字符串。"

const extractPrompt = `你是一个资深品牌策略分析师。以下是一份客户定位报告的全文（逐页带有【第N页】标记）。
请从中提取客户名称以及所有与品牌、产品、视觉、色彩相关的需求条目。
请务必严格按照以下 JSON 格式返回，不要包含任何 markdown 标记：
{
	"customer_name": "客户名称",
	"requirements": [
		{"id": "r1", "text": "需求原文（中文）", "summary_en": "Short English summary", "source_page": 1}
	]
}
说明：source_page 为该需求所在的页码（从【第N页】标记推断），无法确定时填 0。`

// ExtractRequirements 从定位报告文本中提取客户名称与需求列表。
// 文本超出字符预算时会被截断后再送入 LLM。
func (c *Client) ExtractRequirements(ctx context.Context, text string) (*model.Extraction, error) {
	text = pdftext.Truncate(text, c.textBudget)

	var out model.Extraction
	user := extractPrompt + "\n\n报告全文：\n" + text
	if err := c.generateJSON(ctx, extractSystemPrompt, user, &out); err != nil {
		return nil, fmt.Errorf("需求提取失败: %w", err)
	}

	if len(out.Requirements) == 0 {
		return nil, fmt.Errorf("需求提取失败: 未从报告中提取到任何需求")
	}
	if strings.TrimSpace(out.CustomerName) == "" {
		out.CustomerName = "未命名客户"
	}

	// 补齐生成端遗漏的需求 ID
	for i := range out.Requirements {
		if strings.TrimSpace(out.Requirements[i].ID) == "" {
			out.Requirements[i].ID = uuid.NewString()
		}
	}

	logger.Log.Infof("需求提取完成: 客户 [%s]，共 %d 条需求", out.CustomerName, len(out.Requirements))
	return &out, nil
}
