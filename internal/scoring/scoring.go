package scoring

import (
	"fmt"
	"math"

	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/model"
)

// 综合评分的固定权重，总和为 1.00，不可配置。
const (
	WeightMatch      = 0.30
	WeightTrend      = 0.25
	WeightMarket     = 0.20
	WeightInnovation = 0.15
	WeightHarmony    = 0.10
)

// Composite 计算单个方案的加权综合分，保留两位小数。
// 舍入策略：四舍五入（远离零），即 math.Round。
func Composite(s model.SubScores) float64 {
	raw := WeightMatch*s.Match +
		WeightTrend*s.Trend +
		WeightMarket*s.Market +
		WeightInnovation*s.Innovation +
		WeightHarmony*s.Harmony
	return math.Round(raw*100) / 100
}

// Annotate 为一批方案就地填充综合分。
func Annotate(schemes []model.ColorScheme) {
	for i := range schemes {
		schemes[i].WeightedScore = Composite(schemes[i].Scores)
	}
}

// Best 返回综合分最高的方案下标。从左到右扫描，仅在严格更优时替换，
// 因此并列最高分时取生成顺序中最先出现的方案。
func Best(schemes []model.ColorScheme) (int, error) {
	if len(schemes) == 0 {
		return 0, fmt.Errorf("empty scheme batch")
	}
	best := 0
	for i := 1; i < len(schemes); i++ {
		if schemes[i].WeightedScore > schemes[best].WeightedScore {
			best = i
		}
	}
	return best, nil
}
