package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config 项目配置结构体
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Search      SearchConfig      `yaml:"search"`
	Image       ImageConfig       `yaml:"image"`
	Upload      UploadConfig      `yaml:"upload"`
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Server      ServerConfig      `yaml:"server"`
	Output      OutputConfig      `yaml:"output"`
}

// LLMConfig LLM 相关配置
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// SearchConfig 搜索相关配置。Provider 为空表示不接入真实搜索，
// 市场调研阶段退化为纯 LLM 模拟。
type SearchConfig struct {
	Provider string        `yaml:"provider"`
	Tavily   TavilyConfig  `yaml:"tavily"`
	SearXNG  SearXNGConfig `yaml:"searxng"`
}

// TavilyConfig Tavily 配置
type TavilyConfig struct {
	APIKey string `yaml:"api_key"`
}

// SearXNGConfig SearXNG 配置
type SearXNGConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout int    `yaml:"timeout"`
}

// ImageConfig 预览图生成配置
type ImageConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// UploadConfig 上传与提取阶段的限制
type UploadConfig struct {
	MaxSizeMB  int `yaml:"max_size_mb"` // 上传文件大小上限，默认 20
	MaxPages   int `yaml:"max_pages"`   // PDF 提取页数上限，默认 20
	TextBudget int `yaml:"text_budget"` // 送入 LLM 的字符预算，默认 12000
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig LLM 调用限流配置
type ConcurrencyConfig struct {
	QPS int `yaml:"qps"`
	RPM int `yaml:"rpm"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr    string `yaml:"addr"`
	Timeout string `yaml:"timeout"`
}

// OutputConfig 报告输出配置
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// LoadConfig 从指定路径加载配置
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Upload.MaxSizeMB <= 0 {
		c.Upload.MaxSizeMB = 20
	}
	if c.Upload.MaxPages <= 0 {
		c.Upload.MaxPages = 20
	}
	if c.Upload.TextBudget <= 0 {
		c.Upload.TextBudget = 12000
	}
	if c.Concurrency.QPS <= 0 {
		c.Concurrency.QPS = 1
	}
	if c.Concurrency.RPM <= 0 {
		c.Concurrency.RPM = 30
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "output"
	}
}
