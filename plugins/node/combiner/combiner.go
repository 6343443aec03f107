// Package combiner 实现 PromptCombiner 节点：两段多行文本的笛卡尔积组合。
package combiner

import (
	"context"
	"encoding/json"

	"t2nodes/pkg/contract"
	"t2nodes/pkg/textlist"
	"t2nodes/plugins/node/nodeio"
)

const Name = "PromptCombiner"

type Input struct {
	PickIndex        int    `json:"pick_index" validate:"gte=0,lte=9999"`
	PickByIndex      bool   `json:"pick_by_index"`
	IgnoreEmptyLines bool   `json:"ignore_empty_lines"`
	CutComments      bool   `json:"cut_comments"`
	PrependText      string `json:"prepend_text"`
	AppendText       string `json:"append_text"`
	Separator        string `json:"separator"`
	Prompts0         string `json:"prompts_0"`
	Prompts1         string `json:"prompts_1"`
}

func DefaultInput() Input {
	return Input{
		IgnoreEmptyLines: true,
		CutComments:      true,
		Separator:        ", ",
	}
}

type Output struct {
	PromptList      []string
	BodyTextList    []string
	CurrentIdx      []int
	PromptMultiline string
	PromptNumbered  string
}

// Combine 以 prompts_0 为外层生成组合；pick 模式只保留夹紧后的一项。
// current_idx 在 pick 模式下回显原始 pick_index（不夹紧）。
func Combine(in Input) Output {
	a := textlist.Preprocess(in.Prompts0, in.CutComments, in.IgnoreEmptyLines)
	b := textlist.Preprocess(in.Prompts1, in.CutComments, in.IgnoreEmptyLines)
	product := textlist.Product(a, b, in.Separator)

	body := product
	if in.PickByIndex {
		body = textlist.PickByIndex(in.PickIndex, product)
	}
	prompts := textlist.Wrap(body, in.PrependText, in.AppendText)

	idx := textlist.Range(len(prompts))
	if in.PickByIndex {
		idx = []int{in.PickIndex}
	}
	return Output{
		PromptList:      prompts,
		BodyTextList:    body,
		CurrentIdx:      idx,
		PromptMultiline: textlist.Multiline(prompts),
		PromptNumbered:  textlist.Enumerated(prompts),
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
		DisplayName: "T2 Prompt Combiner",
		Category:    "Text tools",
		Description: "Split multiline inputs and produce sequence of their combinations",
		Outputs: []contract.Port{
			{Name: "prompt_list", Type: contract.PortString, List: true},
			{Name: "body_text_list", Type: contract.PortString, List: true},
			{Name: "current_idx", Type: contract.PortInt, List: true},
			{Name: "prompt_multiline", Type: contract.PortString},
			{Name: "prompt_multiline_with_line_numbers", Type: contract.PortString},
		},
	}
}

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
	out := Combine(in)
	return contract.Result{
		{Name: "prompt_list", List: true, Value: out.PromptList},
		{Name: "body_text_list", List: true, Value: out.BodyTextList},
		{Name: "current_idx", List: true, Value: out.CurrentIdx},
		{Name: "prompt_multiline", Value: out.PromptMultiline},
		{Name: "prompt_multiline_with_line_numbers", Value: out.PromptNumbered},
	}, nil
}

var _ contract.Node = (*Node)(nil)
