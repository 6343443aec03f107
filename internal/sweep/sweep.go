// Package sweep 依次枚举一个 seed/index 任务空间的全部批次。
//
// - 并发：仅此层管理并发（errgroup 限流）；枚举本身为纯函数。
// - 顺序门闩：批次按 batch_index 严格递增交给 Sink；乱序结果暂存，连续冲刷。
// - 首错取消：任一批次或 Sink 出错即记录首错并 cancel 整体；排空后返回该错误。
package sweep

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"t2nodes/internal/diag"
	"t2nodes/pkg/seedindex"
)

// Batch 为一个完成枚举的批次。
type Batch struct {
	Index int
	Tasks []seedindex.Task
}

// Sink 按 batch_index 递增顺序、串行地接收批次。
type Sink interface {
	Put(ctx context.Context, b Batch) error
}

// SinkFunc 适配普通函数。
type SinkFunc func(ctx context.Context, b Batch) error

func (f SinkFunc) Put(ctx context.Context, b Batch) error { return f(ctx, b) }

// Settings 运行期参数。
type Settings struct {
	// Request 为请求模板；BatchIndex 为起始批次。
	Request seedindex.Request
	// To 为结束批次（不含）；<=0 或越界时取全部剩余批次。
	To int
	// Concurrency 为并发枚举的批次数；<1 视为 1。
	Concurrency int
	// Label 用于终端提示与日志。
	Label string
}

// Summary 为一次 sweep 的统计。
type Summary struct {
	Batches int
	Tasks   int
}

// Range 返回 [from, to) 批次区间；起始批次先经过预检。
func (s Settings) Range() (from, to int, err error) {
	if err := s.Request.Validate(); err != nil {
		return 0, 0, err
	}
	from = s.Request.BatchIndex
	to = seedindex.Batches(s.Request.Total(), s.Request.BatchSize)
	if s.To > 0 && s.To < to {
		to = s.To
	}
	if to < from {
		to = from
	}
	return from, to, nil
}

type result struct {
	b   Batch
	err error
}

// Run 枚举区间内全部批次并按序交给 sink。logger 与 term 可为 nil。
func Run(ctx context.Context, set Settings, sink Sink, logger *diag.Logger, term *diag.Terminal) (Summary, error) {
	var sum Summary
	if sink == nil {
		return sum, fmt.Errorf("sweep: nil sink")
	}
	from, to, err := set.Range()
	if err != nil {
		logger.Error("sweep", diag.Classify(err), err.Error(), nil)
		diag.IncError("sweep", diag.Classify(err))
		return sum, err
	}
	workers := set.Concurrency
	if workers < 1 {
		workers = 1
	}
	if n := to - from; n > 0 && workers > n {
		workers = n
	}

	run := logger.StartWith("sweep", "run", "SeedIndex", "", map[string]string{
		"from": strconv.Itoa(from), "to": strconv.Itoa(to), "label": set.Label,
	})
	term.RunStart(set.Label, to-from, taskCount(set.Request, from, to))
	t0 := time.Now()
	ok := false
	defer func() {
		term.RunFinish(ok)
		diag.ObserveDuration("sweep", "run", time.Since(t0).Milliseconds())
	}()

	// cancel 供门闩在 Sink 出错时叫停全部 worker
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	results := make(chan result, workers)
	var waitErr error
	go func() {
		defer close(results)
		for i := from; i < to; i++ {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				r := enumerate(gctx, set.Request, i, logger)
				if r.err != nil {
					return r.err
				}
				select {
				case results <- r:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		waitErr = g.Wait()
	}()

	// 顺序门闩
	var sinkErr error
	pending := make(map[int]Batch)
	next := from
	for r := range results {
		if sinkErr != nil {
			continue
		}
		pending[r.b.Index] = r.b
		for gctx.Err() == nil {
			b, ready := pending[next]
			if !ready {
				break
			}
			delete(pending, next)
			if err := sink.Put(gctx, b); err != nil {
				sinkErr = fmt.Errorf("sink batch %d: %w", b.Index, err)
				cancel()
				break
			}
			sum.Batches++
			sum.Tasks += len(b.Tasks)
			next++
			term.Progress(sum.Batches, sum.Tasks)
		}
	}

	// results 关闭后 waitErr 已就绪；因门闩 cancel 而生的取消错误让位于 Sink 首错
	firstErr := sinkErr
	if waitErr != nil && (firstErr == nil || !errors.Is(waitErr, context.Canceled)) {
		firstErr = waitErr
	}
	if firstErr == nil && next < to {
		// 外部取消使生产提前结束
		if err := ctx.Err(); err != nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		code := diag.Classify(firstErr)
		run.Fail(firstErr)
		diag.IncOp("sweep", "run", "error")
		diag.IncError("sweep", code)
		return sum, firstErr
	}
	run.Finish("run", int64(sum.Tasks))
	diag.IncOp("sweep", "run", "success")
	ok = true
	return sum, nil
}

func enumerate(ctx context.Context, tmpl seedindex.Request, idx int, logger *diag.Logger) result {
	if err := ctx.Err(); err != nil {
		return result{err: err}
	}
	req := tmpl
	req.BatchIndex = idx
	bid := strconv.Itoa(idx)
	logger.DebugStart("sweep", "batch", "SeedIndex", bid, nil)
	t0 := time.Now()
	tasks, err := seedindex.Enumerate(req)
	diag.ObserveDuration("sweep", "batch", time.Since(t0).Milliseconds())
	if err != nil {
		logger.ErrorWith("sweep", diag.Classify(err), "enumerate failed", &t0, "SeedIndex", bid, nil)
		diag.IncOp("sweep", "batch", "error")
		return result{err: fmt.Errorf("batch %d: %w", idx, err)}
	}
	diag.IncOp("sweep", "batch", "success")
	return result{b: Batch{Index: idx, Tasks: tasks}}
}

// taskCount 为 [from, to) 覆盖的任务数（末批可能不满）。
func taskCount(req seedindex.Request, from, to int) int {
	total := req.Total()
	lo := from * req.BatchSize
	hi := to * req.BatchSize
	if hi > total {
		hi = total
	}
	if hi < lo {
		return 0
	}
	return hi - lo
}
