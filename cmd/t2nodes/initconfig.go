package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "t2nodes/internal/config"
	"t2nodes/pkg/contract"
)

func newInitConfigCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:         "init-config [dir]",
		Short:       "Write a config template and .env template (never overwrites)",
		Args:        maxArgs(1),
		Annotations: map[string]string{"skip_config": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				dir = args[0]
			}
			ext := strings.ToLower(format)
			if ext == "yml" {
				ext = "yaml"
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("%w: %w", contract.ErrConfigInvalid, err)
			}
			cfgPath := filepath.Join(dir, "config."+ext)
			err := writeConfig(cfgPath, ext, a.stdout, cfgpkg.DefaultTemplateConfig())
			switch {
			case errors.Is(err, os.ErrExist):
				fmt.Fprintf(a.stderr, "skip: %s already exists\n", cfgPath)
			case err != nil:
				return fmt.Errorf("%w: %w", contract.ErrConfigInvalid, err)
			default:
				fmt.Fprintf(a.stderr, "wrote %s\n", cfgPath)
			}
			// .env 失败只提示，不影响退出码
			if err := writeDotEnv(filepath.Join(dir, ".env")); err != nil {
				fmt.Fprintf(a.stderr, "提示：.env 生成失败（已跳过）：%v\n", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "配置格式 json|toml|yaml")
	return cmd
}
