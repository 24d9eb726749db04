package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/config"
	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/logger"
	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/report"
	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/wizard"
)

// 预览图后台生成的最长等待时间
const previewWait = 90 * time.Second

// NewRunCmd 一次性跑完整条流水线：解析 → 调研 → 生成 → 导出
func NewRunCmd() *cobra.Command {
	var (
		confPath string
		outDir   string
		selected int
	)

	cmd := &cobra.Command{
		Use:   "run REPORT.pdf",
		Short: "对单份定位报告运行完整分析并导出结果",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(confPath, args[0], outDir, selected)
		},
	}
	cmd.Flags().StringVar(&confPath, "conf", "configs/config.yaml", "配置文件路径")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "输出目录，默认取配置中的 output.dir")
	cmd.Flags().IntVar(&selected, "select", -1, "指定采用的方案序号（从 0 起），默认采用评分推荐")
	return cmd
}

func runOnce(confPath, pdfPath, outDir string, selected int) error {
	cfg, err := config.LoadConfig(confPath)
	if err != nil {
		return fmt.Errorf("无法加载配置文件: %w", err)
	}
	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		return fmt.Errorf("无法初始化日志: %w", err)
	}
	if outDir == "" {
		outDir = cfg.Output.Dir
	}

	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return fmt.Errorf("无法读取文件: %w", err)
	}

	ctx := context.Background()
	wiz, err := buildWizard(ctx, cfg)
	if err != nil {
		return err
	}
	s := wizard.NewStore().Create()

	sp := spinner.New(spinner.CharSets[11], 100*time.Millisecond)

	sp.Suffix = " 正在解析定位报告..."
	sp.Start()
	err = wiz.UploadDocument(ctx, s, wizard.Upload{
		Name: filepath.Base(pdfPath),
		MIME: wizard.PDFMime,
		Size: int64(len(data)),
		Data: data,
	})
	sp.Stop()
	if err != nil {
		return err
	}
	snap := s.Snapshot()
	printSuccess(fmt.Sprintf("客户 [%s]，提取 %d 条需求", snap.CustomerName, len(snap.Requirements)))
	printRequirements(snap)

	sp.Suffix = " 正在进行市场调研与方案生成..."
	sp.Start()
	if err = wiz.ConfirmRequirements(ctx, s); err != nil {
		sp.Stop()
		return err
	}
	if s.Snapshot().State == wizard.StateViewSearch {
		if err = wiz.ProceedToSchemes(ctx, s); err != nil {
			sp.Stop()
			return err
		}
	}
	sp.Stop()

	snap = s.Snapshot()
	printSuccess(fmt.Sprintf("生成 %d 套候选方案", len(snap.Schemes)))
	printSchemes(snap)

	if err = wiz.ShowResult(s, selected); err != nil {
		return err
	}
	waitForPreview(s, sp)

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("无法创建输出目录: %w", err)
	}

	pdfData, filename, err := wiz.Export(s)
	if err != nil {
		return fmt.Errorf("导出 PDF 失败: %w", err)
	}
	pdfOut := filepath.Join(outDir, filename)
	if err := os.WriteFile(pdfOut, pdfData, 0644); err != nil {
		return fmt.Errorf("写入 PDF 失败: %w", err)
	}

	htmlOut := strings.TrimSuffix(pdfOut, ".pdf") + ".html"
	f, err := os.Create(htmlOut)
	if err != nil {
		return fmt.Errorf("写入 HTML 报告失败: %w", err)
	}
	defer f.Close()
	if err := report.RenderHTML(f, s.Snapshot()); err != nil {
		return fmt.Errorf("渲染 HTML 报告失败: %w", err)
	}

	printSuccess("报告已导出:")
	fmt.Printf("  %s\n  %s\n", pdfOut, htmlOut)
	return nil
}

// waitForPreview 等待后台预览图生成结束，超时则放弃但不影响导出
func waitForPreview(s *wizard.Session, sp *spinner.Spinner) {
	if !s.Snapshot().ImageBusy {
		return
	}
	sp.Suffix = " 正在生成应用场景预览图..."
	sp.Start()
	defer sp.Stop()

	deadline := time.Now().Add(previewWait)
	for time.Now().Before(deadline) {
		snap := s.Snapshot()
		if !snap.ImageBusy {
			if snap.ImageError != "" {
				printError("预览图生成失败: " + snap.ImageError)
			} else {
				printSuccess("预览图生成完成")
			}
			return
		}
		time.Sleep(2 * time.Second)
	}
	printError("预览图生成超时，报告将不含预览图")
}

func printRequirements(snap wizard.Snapshot) {
	for i, r := range snap.Requirements {
		fmt.Printf("  %d. %s", i+1, r.Text)
		if r.SourcePage > 0 {
			fmt.Printf("（第 %d 页）", r.SourcePage)
		}
		fmt.Println()
	}
	fmt.Println()
}

func printSchemes(snap wizard.Snapshot) {
	bold := color.New(color.Bold)
	for i, sc := range snap.Schemes {
		marker := "  "
		if i == snap.BestIndex {
			marker = "⭐"
		}
		bold.Printf("%s %s", marker, sc.Name.Primary())
		fmt.Printf("  综合 %.2f  [%s %s %s]\n",
			sc.WeightedScore, sc.Palette.Primary, sc.Palette.Secondary, sc.Palette.Accent)
	}
	fmt.Println()
}

func printSuccess(msg string) {
	color.New(color.FgGreen).Printf("✓ %s\n", msg)
}

func printError(msg string) {
	color.New(color.FgRed).Printf("✗ %s\n", msg)
}
