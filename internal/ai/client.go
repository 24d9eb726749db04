package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/config"
	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/search"
)

// Client 封装对 LLM 的结构化 JSON 调用：
// 限流、429 退避重试、markdown 代码围栏剥离与 JSON 解码失败重试。
type Client struct {
	cm         model.ChatModel
	limiter    *rate.Limiter
	searcher   search.Searcher // 可为 nil，表示市场调研走纯 LLM 模拟
	textBudget int
}

// NewClient 创建 LLM 客户端
func NewClient(ctx context.Context, cfg *config.Config, searcher search.Searcher) (*Client, error) {
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}

	limit := rate.Limit(float64(cfg.Concurrency.RPM) / 60.0)
	limiter := rate.NewLimiter(limit, cfg.Concurrency.QPS)

	return &Client{
		cm:         cm,
		limiter:    limiter,
		searcher:   searcher,
		textBudget: cfg.Upload.TextBudget,
	}, nil
}

// generateJSON 调用 LLM 并把输出解码到 out。
// 429 触发指数退避重试，JSON 解码失败直接重试，均最多 3 次。
func (c *Client) generateJSON(ctx context.Context, system, user string, out any) error {
	maxRetries := 3
	baseDelay := 2 * time.Second
	var lastErr error

	for i := 0; i <= maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		messages := []*schema.Message{
			{Role: schema.System, Content: system},
			{Role: schema.User, Content: user},
		}

		resp, err := c.cm.Generate(ctx, messages)
		if err != nil {
			if strings.Contains(err.Error(), "429") || strings.Contains(strings.ToLower(err.Error()), "too many requests") {
				lastErr = err
				if i < maxRetries {
					time.Sleep(baseDelay * time.Duration(1<<i))
					continue
				}
			}
			return err
		}

		cleanContent := stripCodeFence(resp.Content)
		if cleanContent == "" {
			lastErr = fmt.Errorf("LLM 返回内容为空")
			if i < maxRetries {
				continue
			}
			return lastErr
		}

		if err := json.Unmarshal([]byte(cleanContent), out); err != nil {
			lastErr = err
			if i < maxRetries {
				continue
			}
			return fmt.Errorf("json unmarshal: %w", err)
		}
		return nil
	}
	return lastErr
}

// stripCodeFence 剥离 LLM 输出外层的 markdown 代码围栏。
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
