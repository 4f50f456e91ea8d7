// catalogctl 课程目录运维命令：迁移、Excel 导入、演示账号
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "catalogctl",
	Short: "課程目錄維運工具",
	Long: `課程目錄維運工具。

可用子命令：
  migrate            执行数据库迁移
  import [files...]  匯入課程 Excel（不帶參數時匯入 catalog.excel_dir）
  backfill-classroom 以 Excel 回填空白教室
  seed               建立或修正演示账号`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径（默认 ./config/config.yaml）")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "覆盖 log.level")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(backfillCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
