package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/logger"
	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/model"
	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/scoring"
)

// SchemeBatchSize 生成端约定每次返回的方案数
const SchemeBatchSize = 4

const schemeSystemPrompt = "你是一个 JSON 生成器。请只输出 JSON 字符串。"

const schemePromptTpl = `你是一个资深品牌色彩设计师。客户需求如下：
%s
%s请为该客户设计 %d 套候选配色方案并逐项评分。
请务必严格按照以下 JSON 格式返回一个数组，不要包含任何 markdown 标记：
[
	{
		"id": "s1",
		"name": {"zh": "方案名（中文）", "en": "Scheme name"},
		"description": {"zh": "设计说明（中文）", "en": "Description"},
		"palette": {"primary": "#1A2B3C", "secondary": "#AABBCC", "accent": "#FF8800"},
		"scores": {"match": 8.5, "trend": 7.0, "market": 8.0, "innovation": 6.5, "harmony": 9.0},
		"usage_advice": {"zh": "应用建议（中文）", "en": "Usage advice"},
		"swot": {"strengths": ["优势1"], "weaknesses": ["劣势1"]}
	}
]
评分说明：五项子评分均为 0-10 的数值，分别代表需求契合度、趋势契合度、市场接受度、创新性与色彩和谐度。`

// GenerateSchemes 生成候选配色方案。搜索产物可为 nil（模拟流程）。
// 返回的方案均带有本地推导并统一舍入的综合分。
func (c *Client) GenerateSchemes(ctx context.Context, reqs []model.Requirement, sr *model.SearchResult) ([]model.ColorScheme, error) {
	reqText := requirementText(reqs)

	var marketBlock string
	if sr != nil {
		data, err := json.Marshal(sr)
		if err == nil {
			marketBlock = "以下是前序市场调研结论（JSON）：\n" + string(data) + "\n\n"
		}
	}

	var schemes []model.ColorScheme
	user := fmt.Sprintf(schemePromptTpl, reqText, marketBlock, SchemeBatchSize)
	if err := c.generateJSON(ctx, schemeSystemPrompt, user, &schemes); err != nil {
		return nil, fmt.Errorf("方案生成失败: %w", err)
	}

	schemes, err := normalizeSchemes(schemes)
	if err != nil {
		return nil, fmt.Errorf("方案生成失败: %w", err)
	}

	// 引用来源随方案一起展示
	if sr != nil {
		for i := range schemes {
			schemes[i].Sources = sr.Sources
		}
	}

	scoring.Annotate(schemes)
	logger.Log.Infof("方案生成完成: %d 套候选方案", len(schemes))
	return schemes, nil
}

// normalizeSchemes 校验并修整生成端返回的方案批次：
// 空批次视为硬失败；多于约定数量时截断；子评分收敛到 [0,10]；补齐缺失 ID。
func normalizeSchemes(schemes []model.ColorScheme) ([]model.ColorScheme, error) {
	if len(schemes) == 0 {
		return nil, fmt.Errorf("生成端返回了空的方案批次")
	}
	if len(schemes) > SchemeBatchSize {
		logger.Log.Warnf("生成端返回 %d 套方案，截断到 %d 套", len(schemes), SchemeBatchSize)
		schemes = schemes[:SchemeBatchSize]
	}

	for i := range schemes {
		s := &schemes[i]
		if strings.TrimSpace(s.ID) == "" {
			s.ID = uuid.NewString()
		}
		s.Scores.Match = clampScore(s.Scores.Match)
		s.Scores.Trend = clampScore(s.Scores.Trend)
		s.Scores.Market = clampScore(s.Scores.Market)
		s.Scores.Innovation = clampScore(s.Scores.Innovation)
		s.Scores.Harmony = clampScore(s.Scores.Harmony)
		s.Palette.Primary = normalizeHex(s.Palette.Primary)
		s.Palette.Secondary = normalizeHex(s.Palette.Secondary)
		s.Palette.Accent = normalizeHex(s.Palette.Accent)
	}
	return schemes, nil
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

// normalizeHex 统一十六进制颜色为 #RRGGBB 大写形式，无法识别时原样返回。
func normalizeHex(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if len(s) == 7 {
		return strings.ToUpper(s)
	}
	return s
}
