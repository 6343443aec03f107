package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"t2nodes/internal/diag"
	"t2nodes/internal/sweep"
	"t2nodes/pkg/contract"
	"t2nodes/pkg/seedindex"
	"t2nodes/plugins/node/nodeio"
	nseed "t2nodes/plugins/node/seed"
)

// seedFlags 绑定全部枚举参数；未显式给出的参数取节点默认输入（可由配置 nodes.SeedIndex 覆盖）。
type seedFlags struct {
	in nseed.Input
}

func bindSeedFlags(cmd *cobra.Command, s *seedFlags) {
	d := nseed.DefaultInput()
	f := cmd.Flags()
	f.IntVar(&s.in.TaskIndex, "batch-index", d.TaskIndex, "批序号（从 0 开始）")
	f.IntVar(&s.in.BatchSize, "batch-size", d.BatchSize, "每批任务数")
	f.Int64Var(&s.in.SeedStart, "seed-start", d.SeedStart, "起始 seed")
	f.IntVar(&s.in.SeedsTotal, "seeds-total", d.SeedsTotal, "seed 数量")
	f.StringVar(&s.in.SeedMethod, "seed-method", d.SeedMethod, "fixed|increment|decrement")
	f.Int64Var(&s.in.IndexStart, "index-start", d.IndexStart, "起始 index")
	f.IntVar(&s.in.IndexesTotal, "indexes-total", d.IndexesTotal, "index 数量")
	f.StringVar(&s.in.Order, "order", d.Order, "seed_then_index|index_then_seed")
}

// resolve 以配置中的节点默认值为底，叠加显式给出的 flag。
func (s *seedFlags) resolve(a *app, cmd *cobra.Command) (nseed.Input, error) {
	in := nseed.DefaultInput()
	if err := nodeio.Decode(a.cfg.Nodes[nseed.Name], &in); err != nil {
		return in, err
	}
	f := cmd.Flags()
	set := map[string]func(){
		"batch-index":   func() { in.TaskIndex = s.in.TaskIndex },
		"batch-size":    func() { in.BatchSize = s.in.BatchSize },
		"seed-start":    func() { in.SeedStart = s.in.SeedStart },
		"seeds-total":   func() { in.SeedsTotal = s.in.SeedsTotal },
		"seed-method":   func() { in.SeedMethod = strings.ToLower(s.in.SeedMethod) },
		"index-start":   func() { in.IndexStart = s.in.IndexStart },
		"indexes-total": func() { in.IndexesTotal = s.in.IndexesTotal },
		"order":         func() { in.Order = strings.ToLower(s.in.Order) },
	}
	for name, apply := range set {
		if f.Changed(name) {
			apply()
		}
	}
	return in, nodeio.Validate(in)
}

func newSeedIndexCmd(a *app) *cobra.Command {
	var sf seedFlags
	cmd := &cobra.Command{
		Use:   "seed-index",
		Short: "Print the (seed, index) tasks of one batch as JSON lines",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := sf.resolve(a, cmd)
			if err != nil {
				return err
			}
			tasks, err := seedindex.Enumerate(in.Request())
			if err != nil {
				return fmt.Errorf("%w: %w", contract.ErrInvalidInput, err)
			}
			return sweep.NewJSONL(a.stdout).Put(cmd.Context(), sweep.Batch{Index: in.TaskIndex, Tasks: tasks})
		},
	}
	bindSeedFlags(cmd, &sf)
	return cmd
}

func newSweepCmd(a *app) *cobra.Command {
	var (
		sf          seedFlags
		to          int
		concurrency int
		out         string
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Enumerate every batch of a seed/index space",
		Long: `Enumerate batches from --batch-index up to --to (exclusive; default: all).
Without --out, tasks are written to stdout as JSON lines. With --out, each batch
is written as <out>/batch-NNNNNN.jsonl under the writer's output directory.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := sf.resolve(a, cmd)
			if err != nil {
				return err
			}
			set := sweep.Settings{
				Request:     in.Request(),
				To:          to,
				Concurrency: concurrency,
				Label:       fmt.Sprintf("seeds=%d indexes=%d batch=%d", in.SeedsTotal, in.IndexesTotal, in.BatchSize),
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return a.runSweep(ctx, set, out)
		},
	}
	bindSeedFlags(cmd, &sf)
	f := cmd.Flags()
	f.IntVar(&to, "to", 0, "结束批序号（不含）；0 表示全部")
	f.IntVar(&concurrency, "concurrency", 1, "并发枚举的批次数")
	f.StringVar(&out, "out", "", "写入输出目录下的子路径（经 writer 插件）；为空写 stdout")
	return cmd
}

// runSweep 执行 sweep；ctx 取消时已交付的批次保留，返回取消错误。
func (a *app) runSweep(ctx context.Context, set sweep.Settings, out string) error {
	var sink sweep.Sink = sweep.NewJSONL(a.stdout)
	term := (*diag.Terminal)(nil)
	if out != "" {
		sink = sweep.Artifacts{W: a.rt.Writer, Prefix: out}
		term = a.terminal()
	}
	sum, err := sweep.Run(ctx, set, sink, a.logger, term)
	if err != nil {
		return err
	}
	if out != "" {
		fmt.Fprintf(a.stderr, "wrote %d batches (%d tasks)\n", sum.Batches, sum.Tasks)
	}
	return nil
}
