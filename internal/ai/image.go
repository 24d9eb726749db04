package ai

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/genai"

	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/config"
	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/model"
)

const defaultImageModel = "gemini-2.5-flash-image-preview"

// ImageGenerator 基于 Gemini 的预览图生成器，返回 base64 data URI。
type ImageGenerator struct {
	client *genai.Client
	model  string
}

// NewImageGenerator 创建预览图生成器
func NewImageGenerator(ctx context.Context, cfg config.ImageConfig) (*ImageGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("image api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("图像客户端初始化失败: %w", err)
	}

	m := cfg.Model
	if m == "" {
		m = defaultImageModel
	}

	return &ImageGenerator{client: client, model: m}, nil
}

// GeneratePreview 为选定方案生成品牌应用预览图。
// contextHint 是由需求拼出的简短场景描述。
func (g *ImageGenerator) GeneratePreview(ctx context.Context, scheme model.ColorScheme, contextHint string) (string, error) {
	prompt := fmt.Sprintf(
		"为品牌设计一张配色应用预览图。配色方案「%s」：主色 %s，辅色 %s，点缀色 %s。场景：%s。"+
			"画面中只使用这三种颜色及其明度变化，风格现代简洁，不要出现文字。",
		scheme.Name.Primary(),
		scheme.Palette.Primary, scheme.Palette.Secondary, scheme.Palette.Accent,
		contextHint,
	)

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	})
	if err != nil {
		return "", fmt.Errorf("预览图生成失败: %w", err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mime := part.InlineData.MIMEType
				if mime == "" {
					mime = "image/png"
				}
				return fmt.Sprintf("data:%s;base64,%s", mime,
					base64.StdEncoding.EncodeToString(part.InlineData.Data)), nil
			}
		}
	}

	return "", fmt.Errorf("预览图生成失败: 响应中没有图像数据")
}
