package model

// BiText 双语文本：主语言为中文，英文为可选的次语言。
// 单语场景下 En 留空即可。
type BiText struct {
	Zh string `json:"zh"`
	En string `json:"en,omitempty"`
}

// Primary 返回主语言文本，中文为空时回退英文。
func (t BiText) Primary() string {
	if t.Zh != "" {
		return t.Zh
	}
	return t.En
}

// Secondary 返回次语言文本，英文为空时回退中文。
func (t BiText) Secondary() string {
	if t.En != "" {
		return t.En
	}
	return t.Zh
}

// Requirement 从定位报告中提取出的单条客户需求，生成后不再修改。
type Requirement struct {
	ID         string `json:"id"`
	Text       string `json:"text"`                  // 需求原文（中文）
	SummaryEn  string `json:"summary_en,omitempty"`  // 英文摘要
	SourcePage int    `json:"source_page,omitempty"` // 来源页码，0 表示未知
}

// Source 引用来源
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// SearchResult 市场调研产物，仅在启用搜索阶段的流程中出现。
type SearchResult struct {
	Trends        []BiText `json:"trends"`
	Competitors   []BiText `json:"competitors"`
	Keywords      []string `json:"keywords"`
	MarketInsight BiText   `json:"market_insight"`
	Sources       []Source `json:"sources,omitempty"` // 去重后的引用，最多 5 条
}

// Palette 三色配色板，均为 #RRGGBB 十六进制
type Palette struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Accent    string `json:"accent"`
}

// SubScores 五项子评分，取值范围 [0,10]。
type SubScores struct {
	Match      float64 `json:"match"`      // 需求契合度
	Trend      float64 `json:"trend"`      // 趋势契合度
	Market     float64 `json:"market"`     // 市场接受度
	Innovation float64 `json:"innovation"` // 创新性
	Harmony    float64 `json:"harmony"`    // 色彩和谐度
}

// SWOT 方案优劣势分析
type SWOT struct {
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

// ColorScheme 候选配色方案。WeightedScore 由本地评分模块推导，
// 不信任生成端给出的综合分，以保证统一的数值精度与舍入策略。
type ColorScheme struct {
	ID            string    `json:"id"`
	Name          BiText    `json:"name"`
	Description   BiText    `json:"description"`
	Palette       Palette   `json:"palette"`
	Scores        SubScores `json:"scores"`
	WeightedScore float64   `json:"weighted_score"`
	Sources       []Source  `json:"sources,omitempty"`
	UsageAdvice   BiText    `json:"usage_advice"`
	SWOT          *SWOT     `json:"swot,omitempty"`
}

// Extraction 需求提取阶段的完整输出
type Extraction struct {
	CustomerName string        `json:"customer_name"`
	Requirements []Requirement `json:"requirements"`
}
