package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"t2nodes/pkg/contract"
	ncomb "t2nodes/plugins/node/combiner"
	nseed "t2nodes/plugins/node/seed"
	nsel "t2nodes/plugins/node/selector"
	njoin "t2nodes/plugins/node/textjoin"
	rfs "t2nodes/plugins/reader/filesystem"
	wfs "t2nodes/plugins/writer/filesystem"
)

// strictUnmarshal: 使用 DisallowUnknownFields 严格解码，拒绝未知字段。
func strictUnmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		// 保持零值（默认选项）
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// NewNode 工厂签名：接收节点默认输入的原样 JSON。
type NewNode func(defaults json.RawMessage) (contract.Node, error)

// NewReader 工厂签名：接收原样 JSON Options。
type NewReader func(raw json.RawMessage) (contract.Reader, error)

// NewWriter 工厂签名：接收原样 JSON Options。
type NewWriter func(raw json.RawMessage) (contract.Writer, error)

// Node 工厂注册表（显式、零反射）。键在全局唯一，与宿主节点名一致。
var Node = map[string]NewNode{
	nsel.Name:  func(raw json.RawMessage) (contract.Node, error) { return nsel.New(raw) },
	ncomb.Name: func(raw json.RawMessage) (contract.Node, error) { return ncomb.New(raw) },
	nseed.Name: func(raw json.RawMessage) (contract.Node, error) { return nseed.New(raw) },
	njoin.Name: func(raw json.RawMessage) (contract.Node, error) { return njoin.New(raw) },
}

// Reader 工厂注册表。
var Reader = map[string]NewReader{
	// fs: 文件/目录/STDIN 文本源
	"fs": func(raw json.RawMessage) (contract.Reader, error) {
		var opts rfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return rfs.New(&opts), nil
	},
}

// Writer 工厂注册表。
var Writer = map[string]NewWriter{
	// fs: 文件系统 Writer（覆盖写/原子替换可配置）
	"fs": func(raw json.RawMessage) (contract.Writer, error) {
		var opts wfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return wfs.New(&opts)
	},
}

// NodeNames 返回按字典序排列的节点名。
func NodeNames() []string {
	names := make([]string, 0, len(Node))
	for k := range Node {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// BuildNodes 按默认输入构造全部节点；defaults 中出现未注册的键即失败。
func BuildNodes(defaults map[string]json.RawMessage) (map[string]contract.Node, error) {
	for k := range defaults {
		if _, ok := Node[k]; !ok {
			return nil, fmt.Errorf("%w: %q", contract.ErrUnknownNode, k)
		}
	}
	out := make(map[string]contract.Node, len(Node))
	for _, name := range NodeNames() {
		n, err := Node[name](defaults[name])
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", name, err)
		}
		out[name] = n
	}
	return out, nil
}
