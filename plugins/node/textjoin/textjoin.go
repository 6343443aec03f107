// Package textjoin 实现 TextJoin 节点：按顺序拼接可选文本片段。
package textjoin

import (
	"context"
	"encoding/json"

	"t2nodes/pkg/contract"
	"t2nodes/pkg/textlist"
	"t2nodes/plugins/node/nodeio"
)

const Name = "TextJoin"

// Input: values 为有序可选片段，null 表示该槽位未连接。
type Input struct {
	Separator string    `json:"separator"`
	Values    []*string `json:"values"`
}

func DefaultInput() Input { return Input{Separator: ", "} }

type Node struct {
	defaults Input
}

func New(raw json.RawMessage) (*Node, error) {
	d := DefaultInput()
	if err := nodeio.Decode(raw, &d); err != nil {
		return nil, err
	}
	return &Node{defaults: d}, nil
}

func (n *Node) Spec() contract.NodeSpec {
	return contract.NodeSpec{
		Name:        Name,
		DisplayName: "T2 Text Join",
		Category:    "Text tools",
		Description: `Joins non-blank text fragments in order; use \n in separator for new line`,
		Outputs: []contract.Port{
			{Name: "text", Type: contract.PortString},
		},
	}
}

func (n *Node) Execute(ctx context.Context, raw json.RawMessage) (contract.Result, error) {
	if err := nodeio.CtxErr(ctx); err != nil {
		return nil, err
	}
	in := n.defaults
	// 解码会复用切片底层数组，先断开与默认值的共享。
	in.Values = append([]*string(nil), n.defaults.Values...)
	if err := nodeio.Decode(raw, &in); err != nil {
		return nil, err
	}
	return contract.Result{
		{Name: "text", Value: textlist.Join(in.Values, in.Separator)},
	}, nil
}

var _ contract.Node = (*Node)(nil)
