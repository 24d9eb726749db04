package ai

import (
	"context"
	"math"
	"testing"

	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/model"
)

const schemesJSON = `[
	{"id": "s1", "name": {"zh": "晨雾蓝"}, "palette": {"primary": "#1A2B3C", "secondary": "aabbcc", "accent": "#FF8800"},
	 "scores": {"match": 7, "trend": 8, "market": 6, "innovation": 5, "harmony": 9}},
	{"name": {"zh": "暖陶棕"}, "palette": {"primary": "#884422", "secondary": "#CCAA88", "accent": "#112233"},
	 "scores": {"match": 11, "trend": -1, "market": 8, "innovation": 8, "harmony": 8}}
]`

func TestGenerateSchemes(t *testing.T) {
	c := newTestClient(&stubChatModel{content: schemesJSON})

	sr := &model.SearchResult{Sources: []model.Source{{Title: "t", URL: "https://x.com/1"}}}
	got, err := c.GenerateSchemes(context.Background(), []model.Requirement{{Text: "环保家居"}}, sr)
	if err != nil {
		t.Fatalf("GenerateSchemes() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}

	// 综合分由本地推导：0.30*7+0.25*8+0.20*6+0.15*5+0.10*9 = 6.95
	if math.Abs(got[0].WeightedScore-6.95) > 1e-9 {
		t.Errorf("WeightedScore = %v, want 6.95", got[0].WeightedScore)
	}

	// 越界评分收敛到 [0,10]
	if got[1].Scores.Match != 10 || got[1].Scores.Trend != 0 {
		t.Errorf("clamp 失败: %+v", got[1].Scores)
	}

	// 缺失 ID 补齐，色值统一为 #RRGGBB
	if got[1].ID == "" {
		t.Error("缺失的方案 ID 未补齐")
	}
	if got[0].Palette.Secondary != "#AABBCC" {
		t.Errorf("Palette.Secondary = %s, want #AABBCC", got[0].Palette.Secondary)
	}

	// 引用来源随方案附带
	if len(got[0].Sources) != 1 || got[0].Sources[0].URL != "https://x.com/1" {
		t.Errorf("sources = %+v", got[0].Sources)
	}
}

func TestGenerateSchemesEmptyBatch(t *testing.T) {
	c := newTestClient(&stubChatModel{content: "[]"})
	if _, err := c.GenerateSchemes(context.Background(), []model.Requirement{{Text: "x"}}, nil); err == nil {
		t.Fatal("GenerateSchemes() 空批次应返回错误")
	}
}

func TestNormalizeSchemesTruncates(t *testing.T) {
	in := make([]model.ColorScheme, 6)
	for i := range in {
		in[i].ID = "s"
	}
	out, err := normalizeSchemes(in)
	if err != nil {
		t.Fatalf("normalizeSchemes() error = %v", err)
	}
	if len(out) != SchemeBatchSize {
		t.Errorf("len = %d, want %d", len(out), SchemeBatchSize)
	}
}

func TestExtractRequirements(t *testing.T) {
	c := newTestClient(&stubChatModel{content: "```json\n" + `{
		"customer_name": "云溪茶舍",
		"requirements": [
			{"id": "", "text": "品牌定位为高端新中式茶饮", "summary_en": "Premium neo-Chinese tea brand", "source_page": 1},
			{"id": "r2", "text": "偏好自然低饱和色", "source_page": 3}
		]
	}` + "\n```"})

	got, err := c.ExtractRequirements(context.Background(), "【第1页】……")
	if err != nil {
		t.Fatalf("ExtractRequirements() error = %v", err)
	}
	if got.CustomerName != "云溪茶舍" {
		t.Errorf("CustomerName = %s", got.CustomerName)
	}
	if len(got.Requirements) != 2 {
		t.Fatalf("requirements = %d, want 2", len(got.Requirements))
	}
	if got.Requirements[0].ID == "" {
		t.Error("空 ID 未补齐")
	}
	if got.Requirements[1].ID != "r2" {
		t.Errorf("已有 ID 被改写: %s", got.Requirements[1].ID)
	}
}

func TestExtractRequirementsEmptyList(t *testing.T) {
	c := newTestClient(&stubChatModel{content: `{"customer_name": "x", "requirements": []}`})
	if _, err := c.ExtractRequirements(context.Background(), "文本"); err == nil {
		t.Fatal("ExtractRequirements() 空需求列表应返回错误")
	}
}
