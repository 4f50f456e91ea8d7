package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"course-catalog/internal/dto"
	"course-catalog/internal/service"
	"course-catalog/pkg/database"
)

var migrateDown int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "执行数据库迁移",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup(migrateDown == 0)
		if err != nil {
			return err
		}
		defer e.close()

		sqlDB, err := e.db.DB()
		if err != nil {
			return err
		}
		if migrateDown > 0 {
			if err := database.RollbackMigrations(sqlDB, migrateDown, e.logger); err != nil {
				return err
			}
		}

		version, dirty, err := database.MigrationVersion(sqlDB)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "当前迁移版本 %d（dirty=%v）\n", version, dirty)
		return nil
	},
}

func init() {
	migrateCmd.Flags().IntVar(&migrateDown, "down", 0, "回退的版本数（0 表示升级到最新）")
}

var importCmd = &cobra.Command{
	Use:   "import [files...]",
	Short: "匯入課程 Excel",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(true)
		if err != nil {
			return err
		}
		defer e.close()

		svc := service.NewImportService(&e.cfg.Catalog, e.repo, e.logger)
		var result *dto.ImportResponse
		if len(args) == 0 {
			result, err = svc.ImportDir(cmd.Context())
			if err != nil {
				return err
			}
		} else {
			result = svc.ImportPaths(cmd.Context(), args)
		}

		printImport(cmd.OutOrStdout(), result)
		if result.TotalFiles == 0 {
			return fmt.Errorf("沒有任何檔案匯入成功")
		}
		return nil
	},
}

var backfillCmd = &cobra.Command{
	Use:   "backfill-classroom",
	Short: "以 Excel 回填空白教室",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup(true)
		if err != nil {
			return err
		}
		defer e.close()

		svc := service.NewImportService(&e.cfg.Catalog, e.repo, e.logger)
		result, err := svc.BackfillClassroom(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "索引 %d 列，回填 %d 筆\n", result.IndexedRows, result.Updated)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "建立或修正演示账号",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup(true)
		if err != nil {
			return err
		}
		defer e.close()

		// 命令行显式执行时无视 demo.seed_accounts
		e.cfg.Demo.SeedAccounts = true
		seeder := service.NewAccountSeeder(&e.cfg.Demo, e.repo, e.logger)
		if err := seeder.EnsureDefaults(cmd.Context()); err != nil {
			return err
		}
		for _, acc := range e.cfg.Demo.Accounts {
			fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", acc.Role, acc.Username)
		}
		return nil
	},
}

func printImport(w io.Writer, result *dto.ImportResponse) {
	for _, f := range result.Files {
		if f.Error != "" {
			fmt.Fprintf(w, "✗ %s: %s\n", f.File, f.Error)
			continue
		}
		fmt.Fprintf(w, "✓ %s: %d 筆\n", f.File, f.Count)
	}
	fmt.Fprintf(w, "共 %d 個檔案、%d 筆課程\n", result.TotalFiles, result.TotalRows)
}
