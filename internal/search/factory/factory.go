package factory

import (
	"fmt"

	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/config"
	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/search"
	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/search/searxng"
	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/search/tavily"
)

// NewSearcher 根据配置创建搜索实例。
// provider 为空返回 (nil, nil)，表示走无真实搜索的模拟调研流程。
func NewSearcher(cfg *config.Config) (search.Searcher, error) {
	provider := cfg.Search.Provider
	if provider == "" {
		if cfg.Search.Tavily.APIKey != "" {
			provider = "tavily"
		} else {
			return nil, nil
		}
	}

	switch provider {
	case "tavily":
		apiKey := cfg.Search.Tavily.APIKey
		if apiKey == "" {
			return nil, fmt.Errorf("tavily api key is missing")
		}
		return tavily.NewClient(apiKey), nil

	case "searxng":
		baseURL := cfg.Search.SearXNG.BaseURL
		if baseURL == "" {
			return nil, fmt.Errorf("searxng base url is missing")
		}
		return searxng.NewClient(baseURL, cfg.Search.SearXNG.Timeout), nil

	default:
		return nil, fmt.Errorf("unknown search provider: %s", provider)
	}
}
