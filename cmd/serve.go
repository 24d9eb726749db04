package cmd

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2"
	"github.com/spf13/cobra"

	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/ai"
	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/config"
	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/logger"
	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/pdftext"
	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/report"
	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/search/factory"
	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/server"
	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/wizard"
)

// NewServeCmd 启动向导 Web 服务
func NewServeCmd() *cobra.Command {
	var confPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动配色向导 Web 服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(confPath)
		},
	}
	cmd.Flags().StringVar(&confPath, "conf", "configs/config.yaml", "配置文件路径")
	return cmd
}

func runServe(confPath string) error {
	cfg, err := config.LoadConfig(confPath)
	if err != nil {
		return fmt.Errorf("无法加载配置文件: %w", err)
	}
	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		return fmt.Errorf("无法初始化日志: %w", err)
	}
	logger.Log.Info("启动 ColorInsight 向导服务...")

	ctx := context.Background()
	wiz, err := buildWizard(ctx, cfg)
	if err != nil {
		return err
	}

	store := wizard.NewStore()
	handler := server.NewHandler(wiz, store, int64(cfg.Upload.MaxSizeMB)<<20)
	httpSrv := server.NewHTTPServer(cfg.Server, handler)

	app := kratos.New(
		kratos.Name("colorinsight"),
		kratos.Server(httpSrv),
	)
	logger.Log.Infof("服务监听于 %s", cfg.Server.Addr)
	return app.Run()
}

// buildWizard 按配置装配整条流水线。
// 未配置搜索供应商时市场调研退化为纯 LLM 模拟，
// 未配置图像密钥时预览图功能停用。
func buildWizard(ctx context.Context, cfg *config.Config) (*wizard.Wizard, error) {
	searcher, err := factory.NewSearcher(cfg)
	if err != nil {
		return nil, fmt.Errorf("无法初始化搜索客户端: %w", err)
	}
	if searcher == nil {
		logger.Log.Info("未配置搜索供应商，市场调研将由 LLM 模拟")
	}

	client, err := ai.NewClient(ctx, cfg, searcher)
	if err != nil {
		return nil, fmt.Errorf("无法初始化 LLM 客户端: %w", err)
	}

	var previewer wizard.PreviewGenerator
	if cfg.Image.APIKey != "" {
		gen, err := ai.NewImageGenerator(ctx, cfg.Image)
		if err != nil {
			logger.Log.Errorf("无法初始化图像客户端，预览图功能停用: %v", err)
		} else {
			previewer = gen
		}
	} else {
		logger.Log.Info("未配置图像密钥，预览图功能停用")
	}

	return wizard.New(
		pdftext.NewExtractor(cfg.Upload.MaxPages),
		client,
		client,
		client,
		previewer,
		report.NewPDFExporter(),
		wizard.Options{
			MaxUploadBytes: int64(cfg.Upload.MaxSizeMB) << 20,
			ShowSearchView: searcher != nil,
		},
	), nil
}
