// Package seedindex 将线性任务号映射到 (seed, index) 二维网格。
//
// 任务空间为 seeds_total × indexes_total；批窗口为
// [batch_index*batch_size, batch_index*batch_size+batch_size) 并裁剪到任务空间内。
// 全部计算为纯函数：无状态、可并发调用、相同输入恒得相同输出。
package seedindex

import (
	"errors"
	"fmt"
	"math"
)

// Order: 两个维度的嵌套顺序；名称中的第一个维度循环最快。
type Order string

const (
	// SeedThenIndex: seed 先走完一整轮，index 再前进一步。
	SeedThenIndex Order = "seed_then_index"
	// IndexThenSeed: index 先走完一整轮，seed 再前进一步。
	IndexThenSeed Order = "index_then_seed"
)

// Policy: seed 偏移到实际 seed 值的映射方式。
type Policy string

const (
	Fixed     Policy = "fixed"
	Increment Policy = "increment"
	Decrement Policy = "decrement"
)

// ErrInvalidRequest: 请求不满足前置条件（维度/批大小/枚举值）。
var ErrInvalidRequest = errors.New("seedindex: invalid request")

// ParseOrder 解析宿主传入的顺序名。
func ParseOrder(s string) (Order, error) {
	switch o := Order(s); o {
	case SeedThenIndex, IndexThenSeed:
		return o, nil
	}
	return "", fmt.Errorf("%w: unknown order %q", ErrInvalidRequest, s)
}

// ParsePolicy 解析宿主传入的 seed 策略名。
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case Fixed, Increment, Decrement:
		return p, nil
	}
	return "", fmt.Errorf("%w: unknown seed method %q", ErrInvalidRequest, s)
}

// Apply 按策略把 seed 偏移换算为 seed 值。
func (p Policy) Apply(start int64, offset int) int64 {
	switch p {
	case Increment:
		return start + int64(offset)
	case Decrement:
		return start - int64(offset)
	default:
		return start
	}
}

// Request: 一次批枚举的全部参数。
type Request struct {
	BatchIndex   int    `json:"batch_index"`
	BatchSize    int    `json:"batch_size"`
	SeedStart    int64  `json:"seed_start"`
	SeedsTotal   int    `json:"seeds_total"`
	SeedMethod   Policy `json:"seed_method"`
	IndexStart   int64  `json:"index_start"`
	IndexesTotal int    `json:"indexes_total"`
	Order        Order  `json:"order"`
}

// Total 返回任务空间大小 seeds_total*indexes_total。
func (r Request) Total() int { return r.SeedsTotal * r.IndexesTotal }

// Window 返回裁剪后的半开区间 [from, to)；窗口完全越界时 from == to。
func (r Request) Window() (from, to int) {
	total := r.Total()
	from = r.BatchIndex * r.BatchSize
	to = from + r.BatchSize
	if to > total {
		to = total
	}
	if from > to {
		from = to
	}
	return from, to
}

// ValidationError: 批序号超出任务空间（预检失败，不做计算）。
type ValidationError struct {
	BatchIndex int
	// Max: 允许的最大 batch_index，即 floor(total/batch_size)。
	Max int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("batch_index (%d) should not be greater than seeds_total*indexes_total/batch_size (%d)", e.BatchIndex, e.Max)
}

// Is 让 errors.Is(err, ErrInvalidRequest) 同样命中预检失败。
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidRequest }

// Validate 对请求做静态预检。
// batch_index > total/batch_size（实数除法）时返回 *ValidationError。
// batch_index*batch_size == total 合法，对应空窗口。
func (r Request) Validate() error {
	if r.SeedsTotal < 1 {
		return fmt.Errorf("%w: seeds_total must be >= 1, got %d", ErrInvalidRequest, r.SeedsTotal)
	}
	if r.IndexesTotal < 1 {
		return fmt.Errorf("%w: indexes_total must be >= 1, got %d", ErrInvalidRequest, r.IndexesTotal)
	}
	if r.SeedsTotal > math.MaxInt32 || r.IndexesTotal > math.MaxInt32 {
		return fmt.Errorf("%w: task space too large", ErrInvalidRequest)
	}
	if r.BatchSize < 1 {
		return fmt.Errorf("%w: batch_size must be >= 1, got %d", ErrInvalidRequest, r.BatchSize)
	}
	if r.BatchIndex < 0 {
		return fmt.Errorf("%w: batch_index must be >= 0, got %d", ErrInvalidRequest, r.BatchIndex)
	}
	if _, err := ParseOrder(string(r.Order)); err != nil {
		return err
	}
	if _, err := ParsePolicy(string(r.SeedMethod)); err != nil {
		return err
	}
	// 末个偏移为 total-1 的各自分量；其结果必须落在 int64 内。
	span := int64(r.SeedsTotal - 1)
	switch r.SeedMethod {
	case Increment:
		if r.SeedStart > math.MaxInt64-span {
			return fmt.Errorf("%w: seed_start %d + %d overflows int64", ErrInvalidRequest, r.SeedStart, span)
		}
	case Decrement:
		if r.SeedStart < math.MinInt64+span {
			return fmt.Errorf("%w: seed_start %d - %d overflows int64", ErrInvalidRequest, r.SeedStart, span)
		}
	}
	if r.IndexStart > math.MaxInt64-int64(r.IndexesTotal-1) {
		return fmt.Errorf("%w: index_start %d + %d overflows int64", ErrInvalidRequest, r.IndexStart, r.IndexesTotal-1)
	}
	// 整数 k 满足 k > x 当且仅当 k > floor(x)，避免乘法溢出。
	if limit := r.Total() / r.BatchSize; r.BatchIndex > limit {
		return &ValidationError{BatchIndex: r.BatchIndex, Max: limit}
	}
	return nil
}

// Task: 单个任务在网格中的位置与解析后的取值。
type Task struct {
	ID          int    `json:"id"`
	SeedOffset  int    `json:"seed_offset"`
	IndexOffset int    `json:"index_offset"`
	Seed        int64  `json:"seed"`
	Index       int64  `json:"index"`
	Description string `json:"description"`
}

// Offsets 返回任务号 t 对应的 (seed_offset, index_offset)。
func Offsets(t, seedsTotal, indexesTotal int, order Order) (seedOffset, indexOffset int) {
	if order == SeedThenIndex {
		return t % seedsTotal, (t / seedsTotal) % indexesTotal
	}
	return (t / indexesTotal) % seedsTotal, t % indexesTotal
}

// Describe 生成任务的可读描述。
func Describe(seed, index int64) string {
	return fmt.Sprintf("seed %d index %d", seed, index)
}

// Enumerate 预检后枚举批窗口内的任务；越界任务号静默丢弃，
// 因此结果长度可能小于 batch_size（窗口完全越界时为空切片）。
func Enumerate(req Request) ([]Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	from, to := req.Window()
	tasks := make([]Task, 0, to-from)
	for t := from; t < to; t++ {
		so, io := Offsets(t, req.SeedsTotal, req.IndexesTotal, req.Order)
		seed := req.SeedMethod.Apply(req.SeedStart, so)
		index := req.IndexStart + int64(io)
		tasks = append(tasks, Task{
			ID:          t,
			SeedOffset:  so,
			IndexOffset: io,
			Seed:        seed,
			Index:       index,
			Description: Describe(seed, index),
		})
	}
	return tasks, nil
}

// Columns 将任务拆为三条等长序列（seed、index、描述）。
func Columns(tasks []Task) (seeds, indexes []int64, descriptions []string) {
	seeds = make([]int64, len(tasks))
	indexes = make([]int64, len(tasks))
	descriptions = make([]string, len(tasks))
	for i, t := range tasks {
		seeds[i] = t.Seed
		indexes[i] = t.Index
		descriptions[i] = t.Description
	}
	return seeds, indexes, descriptions
}

// Batches 返回覆盖 total 个任务所需的批数 ceil(total/batchSize)。
func Batches(total, batchSize int) int {
	if total <= 0 || batchSize <= 0 {
		return 0
	}
	return (total + batchSize - 1) / batchSize
}
