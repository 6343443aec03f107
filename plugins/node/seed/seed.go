// Package seed 实现 SeedIndex 节点：批量枚举 (seed, index) 任务。
package seed

import (
	"context"
	"encoding/json"
	"fmt"

	"t2nodes/pkg/contract"
	"t2nodes/pkg/seedindex"
	"t2nodes/plugins/node/nodeio"
)

const Name = "SeedIndex"

// Input 的范围与宿主控件一致；task_index 上界由任务空间预检决定。
type Input struct {
	TaskIndex    int    `json:"task_index" validate:"gte=0"`
	SeedStart    int64  `json:"seed_start"`
	SeedsTotal   int    `json:"seeds_total" validate:"gte=1,lte=1000"`
	SeedMethod   string `json:"seed_method" validate:"oneof=fixed increment decrement"`
	IndexStart   int64  `json:"index_start" validate:"gte=0,lte=1000"`
	IndexesTotal int    `json:"indexes_total" validate:"gte=1,lte=1000"`
	Order        string `json:"order" validate:"oneof=seed_then_index index_then_seed"`
	BatchSize    int    `json:"batch_size" validate:"gte=1,lte=1000"`
}

func DefaultInput() Input {
	return Input{
		SeedsTotal:   1,
		SeedMethod:   string(seedindex.Increment),
		IndexesTotal: 1,
		Order:        string(seedindex.SeedThenIndex),
		BatchSize:    1,
	}
}

// Request 将节点输入映射为枚举请求（task_index 即 batch_index）。
func (in Input) Request() seedindex.Request {
	return seedindex.Request{
		BatchIndex:   in.TaskIndex,
		BatchSize:    in.BatchSize,
		SeedStart:    in.SeedStart,
		SeedsTotal:   in.SeedsTotal,
		SeedMethod:   seedindex.Policy(in.SeedMethod),
		IndexStart:   in.IndexStart,
		IndexesTotal: in.IndexesTotal,
		Order:        seedindex.Order(in.Order),
	}
}

type Node struct {
	defaults Input
}

func New(raw json.RawMessage) (*Node, error) {
	d := DefaultInput()
	if err := nodeio.Decode(raw, &d); err != nil {
		return nil, err
	}
	if err := nodeio.Validate(d); err != nil {
		return nil, err
	}
	return &Node{defaults: d}, nil
}

func (n *Node) Spec() contract.NodeSpec {
	return contract.NodeSpec{
		Name:        Name,
		DisplayName: "T2 Seed Index",
		Category:    "Text tools",
		Description: "Enumerates (seed, index) pairs for the requested batch of tasks",
		Outputs: []contract.Port{
			{Name: "seed", Type: contract.PortInt, List: true},
			{Name: "index", Type: contract.PortInt, List: true},
			{Name: "seedIndexFormatted", Type: contract.PortString, List: true},
		},
	}
}

// Execute 先做范围校验，再做任务空间预检；预检失败时不做任何计算，
// 返回的错误同时满足 errors.Is(err, contract.ErrInvalidInput)
// 与 errors.As(err, **seedindex.ValidationError)。
func (n *Node) Execute(ctx context.Context, raw json.RawMessage) (contract.Result, error) {
	if err := nodeio.CtxErr(ctx); err != nil {
		return nil, err
	}
	in := n.defaults
	if err := nodeio.Decode(raw, &in); err != nil {
		return nil, err
	}
	if err := nodeio.Validate(in); err != nil {
		return nil, err
	}
	tasks, err := seedindex.Enumerate(in.Request())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", contract.ErrInvalidInput, err)
	}
	seeds, indexes, descs := seedindex.Columns(tasks)
	return contract.Result{
		{Name: "seed", List: true, Value: seeds},
		{Name: "index", List: true, Value: indexes},
		{Name: "seedIndexFormatted", List: true, Value: descs},
	}, nil
}

var _ contract.Node = (*Node)(nil)
