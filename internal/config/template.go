package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultTemplateConfig 返回一个可直接运行的配置模板：包含全部键，
// 节点默认输入与宿主控件默认值一致。
func DefaultTemplateConfig() Config {
	cfg := Defaults()
	cfg.Options.Reader = json.RawMessage(`{
  "buf_size": 65536,
  "exclude_dir_names": [".git", "node_modules"],
  "allow_exts": [".txt"]
}`)
	cfg.Options.Writer = json.RawMessage(`{
  "dir": "out",
  "atomic": true,
  "flat": false,
  "perm_file": 0,
  "perm_dir": 0,
  "buf_size": 65536
}`)
	cfg.Nodes = map[string]json.RawMessage{
		"PromptSelector": json.RawMessage(`{"ignore_empty_lines": true, "cut_comments": true, "multiline_text": "body_text"}`),
		"PromptCombiner": json.RawMessage(`{"separator": ", ", "ignore_empty_lines": true, "cut_comments": true}`),
		"SeedIndex":      json.RawMessage(`{"seeds_total": 1, "seed_method": "increment", "indexes_total": 1, "order": "seed_then_index", "batch_size": 1}`),
		"TextJoin":       json.RawMessage(`{"separator": ", "}`),
	}
	return cfg
}

// Encode 以 json/toml/yaml 格式序列化配置（供 init-config 使用）。
// TOML/YAML 经由 JSON 文档树转换，键名与 JSON 完全一致。
func Encode(cfg Config, format string) ([]byte, error) {
	js, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(format) {
	case "", "json":
		return append(js, '\n'), nil
	case "toml", "yaml", "yml":
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
	dec := json.NewDecoder(bytes.NewReader(js))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	tree := normalize(doc)
	if strings.EqualFold(format, "toml") {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(tree); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return yaml.Marshal(tree)
}

// normalize 将 json.Number 还原为 int64/float64，使整数在 TOML/YAML 中保持整数。
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, x := range t {
			t[k] = normalize(x)
		}
		return t
	case []any:
		for i, x := range t {
			t[i] = normalize(x)
		}
		return t
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		f, _ := t.Float64()
		return f
	default:
		return v
	}
}
