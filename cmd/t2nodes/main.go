// Command t2nodes 在命令行或 HTTP 上运行文本与 seed/index 节点。
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	cfgpkg "t2nodes/internal/config"
	"t2nodes/internal/diag"
	"t2nodes/pkg/contract"
)

// version 构建时经 -ldflags "-X main.version=..." 注入。
var version = "dev"

func main() {
	// 在任何 ENV 读取前加载工作目录下的 .env（不覆盖已有 ENV）。
	_ = loadDotEnv(".env")
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run 执行命令并返回退出码：0 成功，1 运行失败，2 输入校验失败，3 配置失败。
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{corrID: diag.NewCorrID(), stdin: stdin, stdout: stdout, stderr: stderr}
	defer a.close()
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		if a.logger != nil {
			a.logger.Error("cli", diag.Classify(err), err.Error(), nil)
		}
		return diag.ExitCode(err)
	}
	return diag.ExitOK
}

// app 为一次进程运行的共享状态；配置在 PersistentPreRunE 中装配。
type app struct {
	corrID string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	flagConfig   string
	flagLogLevel string
	flagLogDir   string
	flagStatus   bool

	cfg    cfgpkg.Config
	rt     cfgpkg.Runtime
	logger *diag.Logger
}

func (a *app) close() {
	if a.logger != nil {
		_ = a.logger.Close()
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "t2nodes",
		Short:         "Text list and seed/index nodes for batch prompt pipelines",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations["skip_config"] == "true" {
				return nil
			}
			return a.loadConfig(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.flagConfig, "config", "", "配置文件（.json/.toml/.yaml）；缺省读取 ./config.{json,toml,yaml}（若存在）")
	pf.StringVar(&a.flagLogLevel, "log-level", "", "日志级别 debug|info|warn|error（覆盖配置）")
	pf.StringVar(&a.flagLogDir, "log-dir", "", "日志目录（覆盖配置）")
	pf.BoolVar(&a.flagStatus, "status", true, "终端状态提示（stderr）。TTY 动态刷新；非 TTY 打点输出")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", contract.ErrInvalidInput, err)
	})

	root.AddCommand(
		newNodesCmd(a),
		newExecCmd(a),
		newSeedIndexCmd(a),
		newSweepCmd(a),
		newServeCmd(a),
		newInitConfigCmd(a),
	)
	return root
}

// loadConfig 合并 默认值 < 配置文件 < ENV < CLI，校验并装配组件。
func (a *app) loadConfig(cmd *cobra.Command) error {
	cfg := cfgpkg.Defaults()

	path := a.flagConfig
	if path == "" {
		path = os.Getenv(cfgpkg.EnvPrefix + "CONFIG_FILE")
	}
	if path == "" {
		for _, name := range []string{"config.json", "config.toml", "config.yaml", "config.yml"} {
			if _, err := os.Stat(name); err == nil {
				path = name
				break
			}
		}
	}
	if path != "" {
		base, err := cfgpkg.LoadFile(path)
		if err != nil {
			return err
		}
		cfg = cfgpkg.Merge(cfg, base)
	}
	if raw := os.Getenv(cfgpkg.EnvPrefix + "CONFIG_JSON"); strings.TrimSpace(raw) != "" {
		base, err := cfgpkg.LoadJSON("", []byte(raw))
		if err != nil {
			return err
		}
		cfg = cfgpkg.Merge(cfg, base)
	}

	over, err := cfgpkg.EnvOverlay(os.Environ())
	if err != nil {
		return err
	}
	cfg = cfgpkg.Merge(cfg, over)

	var cli cfgpkg.Config
	cli.Logging.Level = a.flagLogLevel
	cli.Logging.Dir = a.flagLogDir
	if f := cmd.Flags().Lookup("addr"); f != nil && f.Changed {
		cli.Server.Addr = f.Value.String()
	}
	cfg = cfgpkg.Merge(cfg, cli)

	rt, err := cfgpkg.Assemble(cfg)
	if err != nil {
		return err
	}
	a.cfg, a.rt = cfg, rt
	a.logger = diag.NewLogger(a.corrID, cfg.Logging.Level, cfg.Logging.Dir, cfg.Logging.MaxBytes)
	a.logger.DebugStart("config", "effective", "", "", map[string]string{
		"config_file": filepath.ToSlash(path),
		"reader":      cfg.Components.Reader,
		"writer":      cfg.Components.Writer,
		"server_addr": cfg.Server.Addr,
		"command":     cmd.Name(),
	})
	return nil
}

// signalContext 在 SIGINT/SIGTERM 时取消 ctx；长时间运行的命令共用。
func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func (a *app) terminal() *diag.Terminal { return diag.NewTerminal(a.stderr, a.flagStatus) }

// exactArgs 与 cobra.ExactArgs 相同，但错误归类为输入校验失败。
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return fmt.Errorf("%w: %w", contract.ErrInvalidInput, err)
		}
		return nil
	}
}

func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return fmt.Errorf("%w: %w", contract.ErrInvalidInput, err)
		}
		return nil
	}
}
