// Package selector 实现 PromptSelector 节点：多行文本 → 提示词序列。
package selector

import (
	"context"
	"encoding/json"

	"t2nodes/pkg/contract"
	"t2nodes/pkg/textlist"
	"t2nodes/plugins/node/nodeio"
)

// Name 为注册表键。
const Name = "PromptSelector"

// Input 为节点输入；零值之外的缺省由 DefaultInput 提供。
type Input struct {
	PickIndex        int    `json:"pick_index" validate:"gte=0,lte=9999"`
	PickByIndex      bool   `json:"pick_by_index"`
	IgnoreEmptyLines bool   `json:"ignore_empty_lines"`
	CutComments      bool   `json:"cut_comments"`
	PrependText      string `json:"prepend_text"`
	AppendText       string `json:"append_text"`
	MultilineText    string `json:"multiline_text"`
}

// DefaultInput 返回宿主界面上的默认值。
func DefaultInput() Input {
	return Input{
		IgnoreEmptyLines: true,
		CutComments:      true,
		MultilineText:    "body_text",
	}
}

// Output 为节点的类型化输出。
type Output struct {
	PromptList      []string
	BodyTextList    []string
	CurrentIdx      []int
	PromptMultiline string
	PromptNumbered  string
}

// Select 为纯计算核心。
// body_text_list 始终为全部预处理行；pick 模式仅输出夹紧后的那一行。
func Select(in Input) Output {
	lines := textlist.Preprocess(in.MultilineText, in.CutComments, in.IgnoreEmptyLines)
	pick := textlist.BoundIndex(in.PickIndex, len(lines))

	selected := lines
	if in.PickByIndex {
		selected = textlist.PickByIndex(pick, lines)
	}
	prompts := textlist.Wrap(selected, in.PrependText, in.AppendText)

	idx := textlist.Range(len(prompts))
	if in.PickByIndex {
		idx = []int{pick}
	}
	return Output{
		PromptList:      prompts,
		BodyTextList:    lines,
		CurrentIdx:      idx,
		PromptMultiline: textlist.Multiline(prompts),
		PromptNumbered:  textlist.Numbered(prompts),
	}
}

// Node 为 contract.Node 实现；defaults 来自配置，构造后只读。
type Node struct {
	defaults Input
}

// New 从原样 JSON（节点默认输入）创建节点。
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
		DisplayName: "T2 Prompt Selector",
		Category:    "Text tools",
		Description: "Produces sequence of prompts and multiline output for processing (if required)",
		Outputs: []contract.Port{
			{Name: "prompt_list", Type: contract.PortString, List: true},
			{Name: "body_text_list", Type: contract.PortString, List: true},
			{Name: "current_idx", Type: contract.PortInt, List: true},
			{Name: "prompt_multiline", Type: contract.PortString},
			{Name: "prompt_multiline_with_line_numbers", Type: contract.PortString},
		},
	}
}

// Execute 解码输入（覆盖默认值）、校验并计算。
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
	out := Select(in)
	return contract.Result{
		{Name: "prompt_list", List: true, Value: out.PromptList},
		{Name: "body_text_list", List: true, Value: out.BodyTextList},
		{Name: "current_idx", List: true, Value: out.CurrentIdx},
		{Name: "prompt_multiline", Value: out.PromptMultiline},
		{Name: "prompt_multiline_with_line_numbers", Value: out.PromptNumbered},
	}, nil
}

var _ contract.Node = (*Node)(nil)
