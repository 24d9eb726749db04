package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/logger"
	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/model"
	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/search"
)

// maxSources 报告中保留的引用来源上限
const maxSources = 5

const marketSystemPrompt = "你是一个 JSON 生成器。请只输出 JSON 字符串。"

const marketPromptTpl = `你是一个资深市场与色彩趋势分析师。客户需求如下：
%s
%s请围绕该客户所在行业给出双语市场调研结论。
请务必严格按照以下 JSON 格式返回，不要包含任何 markdown 标记：
{
	"trends": [{"zh": "趋势（中文）", "en": "Trend (English)"}],
	"competitors": [{"zh": "竞品色彩策略（中文）", "en": "Competitor note (English)"}],
	"keywords": ["关键词1", "关键词2"],
	"market_insight": {"zh": "市场洞察段落（中文）", "en": "Market insight paragraph (English)"}
}`

// MarketResearch 执行市场调研。配置了搜索端时先检索外部资料并随引用一起
// 交给 LLM 分析；否则退化为基于 LLM 自身知识的模拟调研，引用列表为空。
func (c *Client) MarketResearch(ctx context.Context, reqs []model.Requirement) (*model.SearchResult, error) {
	reqText := requirementText(reqs)

	var refBlock string
	var sources []model.Source

	if c.searcher != nil {
		snippets, srcs, err := c.collectReferences(ctx, reqs)
		if err != nil {
			return nil, fmt.Errorf("市场检索失败: %w", err)
		}
		sources = srcs
		if snippets != "" {
			refBlock = "以下是检索到的外部参考资料：\n" + snippets + "\n\n"
		}
	}

	var out model.SearchResult
	user := fmt.Sprintf(marketPromptTpl, reqText, refBlock)
	if err := c.generateJSON(ctx, marketSystemPrompt, user, &out); err != nil {
		return nil, fmt.Errorf("市场调研失败: %w", err)
	}

	// 引用在 LLM 调用之外附加，确保去重与数量上限不受生成内容影响
	out.Sources = dedupeSources(sources, maxSources)

	logger.Log.Infof("市场调研完成: %d 条趋势，%d 条竞品，%d 条引用",
		len(out.Trends), len(out.Competitors), len(out.Sources))
	return &out, nil
}

// collectReferences 检索外部资料，返回拼接后的摘要文本与来源列表。
func (c *Client) collectReferences(ctx context.Context, reqs []model.Requirement) (string, []model.Source, error) {
	query := buildSearchQuery(reqs)
	resp, err := c.searcher.Search(ctx, &search.Request{
		Query:      query,
		Topic:      "general",
		MaxResults: 8,
	})
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	var sources []model.Source
	count := 0
	for _, item := range resp.Results {
		content := item.Content
		// 摘要过短时尝试抓取正文
		if len(content) < 300 {
			fetched, err := fetchAndCleanContent(item.URL)
			if err == nil && len(fetched) > len(content) {
				content = fetched
			}
		}
		if len(content) > 2000 {
			content = content[:2000]
		}
		if len(content) < 100 {
			continue
		}

		count++
		fmt.Fprintf(&sb, "资料 %d:\n标题: %s\n内容: %s\n\n", count, item.Title, content)
		sources = append(sources, model.Source{Title: item.Title, URL: item.URL})
		if count >= 5 {
			break
		}
	}

	return sb.String(), sources, nil
}

// fetchAndCleanContent 抓取 URL 并提取核心文本
func fetchAndCleanContent(url string) (string, error) {
	article, err := readability.FromURL(url, 30*time.Second)
	if err != nil {
		return "", err
	}
	return article.TextContent, nil
}

// buildSearchQuery 用需求文本构造检索词
func buildSearchQuery(reqs []model.Requirement) string {
	var parts []string
	for i, r := range reqs {
		if i >= 3 {
			break
		}
		parts = append(parts, r.Text)
	}
	return strings.Join(parts, " ") + " 行业 色彩 流行趋势"
}

// requirementText 把需求列表拼成带编号的纯文本
func requirementText(reqs []model.Requirement) string {
	var sb strings.Builder
	for i, r := range reqs {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, r.Text)
	}
	return sb.String()
}

// dedupeSources 按 URL 去重，保留首次出现的顺序，并截断到 max 条。
func dedupeSources(sources []model.Source, max int) []model.Source {
	seen := make(map[string]struct{}, len(sources))
	var out []model.Source
	for _, s := range sources {
		if s.URL == "" {
			continue
		}
		if _, ok := seen[s.URL]; ok {
			continue
		}
		seen[s.URL] = struct{}{}
		out = append(out, s)
		if len(out) >= max {
			break
		}
	}
	return out
}
