package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SM01-studio/Colorinsight-AI-T-01/cmd"
)

var (
	version = "v0.1.0" // Overwritten at build time
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "colorinsight",
		Short: "AI 配色方案顾问",
		Long: `colorinsight 读取客户的 PDF 定位报告，提取设计需求，
结合市场调研生成多套候选配色方案并给出推荐。`,
		SilenceUsage: true,
	}

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(
		cmd.NewServeCmd(),
		cmd.NewRunCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "打印版本号",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("colorinsight version %s\n", version)
		},
	}
}
