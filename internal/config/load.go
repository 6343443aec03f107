package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"t2nodes/pkg/contract"
)

// EnvPrefix 为全部环境变量键的前缀。
const EnvPrefix = "T2_"

// Defaults 返回带有安全默认值的 Config 雏形。
func Defaults() Config {
	return Config{
		Logging:    Logging{Level: "info", Dir: "logs", MaxBytes: 10 * 1024 * 1024},
		Components: Components{Reader: "fs", Writer: "fs"},
		Options: Options{
			Writer: json.RawMessage(`{"dir":"out"}`),
		},
		Server: Server{Addr: "127.0.0.1:8190", TimeoutSeconds: 30, MaxInFlight: 64},
	}
}

// LoadFile 按扩展名解析配置文件：.json / .toml / .yaml / .yml。
// TOML 与 YAML 先归一为 JSON，再走与 .json 相同的严格解码，因此未知键同样失败。
func LoadFile(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", contract.ErrConfigInvalid, err)
	}
	var raw []byte
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json", "":
		raw = b
	case ".toml":
		var doc map[string]any
		if _, err := toml.Decode(string(b), &doc); err != nil {
			return Config{}, fmt.Errorf("%w: toml: %w", contract.ErrConfigInvalid, err)
		}
		raw, err = json.Marshal(doc)
	case ".yaml", ".yml":
		var doc map[string]any
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return Config{}, fmt.Errorf("%w: yaml: %w", contract.ErrConfigInvalid, err)
		}
		raw, err = json.Marshal(doc)
	default:
		return Config{}, fmt.Errorf("%w: unsupported config format %q", contract.ErrConfigInvalid, ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", contract.ErrConfigInvalid, err)
	}
	return LoadJSON("", raw)
}

// LoadJSON 从文件路径或原始 JSON 解析 Config（严格拒绝未知字段）。
func LoadJSON(path string, raw []byte) (Config, error) {
	var cfg Config
	var r io.Reader
	switch {
	case len(raw) > 0:
		r = bytes.NewReader(raw)
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("%w: %w", contract.ErrConfigInvalid, err)
		}
		defer f.Close()
		r = f
	default:
		return cfg, fmt.Errorf("%w: no config source provided", contract.ErrConfigInvalid)
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: %w", contract.ErrConfigInvalid, err)
	}
	return cfg, nil
}

// Merge 按优先级合并（后者覆盖前者）。
// 标量与原样 JSON 为“替换”；Nodes 按键替换，不做深度合并。
func Merge(base, over Config) Config {
	out := base
	if v := strings.TrimSpace(over.Logging.Level); v != "" {
		out.Logging.Level = v
	}
	if over.Logging.Dir != "" {
		out.Logging.Dir = over.Logging.Dir
	}
	if over.Logging.MaxBytes != 0 {
		out.Logging.MaxBytes = over.Logging.MaxBytes
	}
	if over.Components.Reader != "" {
		out.Components.Reader = over.Components.Reader
	}
	if over.Components.Writer != "" {
		out.Components.Writer = over.Components.Writer
	}
	if len(over.Options.Reader) > 0 {
		out.Options.Reader = cloneRaw(over.Options.Reader)
	}
	if len(over.Options.Writer) > 0 {
		out.Options.Writer = cloneRaw(over.Options.Writer)
	}
	if over.Server.Addr != "" {
		out.Server.Addr = over.Server.Addr
	}
	if over.Server.TimeoutSeconds != 0 {
		out.Server.TimeoutSeconds = over.Server.TimeoutSeconds
	}
	if over.Server.MaxInFlight != 0 {
		out.Server.MaxInFlight = over.Server.MaxInFlight
	}
	if len(over.Nodes) > 0 {
		nodes := make(map[string]json.RawMessage, len(base.Nodes)+len(over.Nodes))
		for k, v := range base.Nodes {
			nodes[k] = v
		}
		for k, v := range over.Nodes {
			nodes[k] = cloneRaw(v)
		}
		out.Nodes = nodes
	}
	return out
}

// EnvOverlay 从环境变量构建一个 Config 覆盖（仅解析有限键集合，其余忽略）。
// 支持：LOG_LEVEL, LOG_DIR, LOG_MAX_BYTES, COMPONENTS_{READER,WRITER},
// OPTIONS_{READER,WRITER}_JSON, OUTPUT_DIR, SERVER_ADDR, SERVER_TIMEOUT_SECONDS,
// SERVER_MAX_IN_FLIGHT 以及 NODES__<name>__JSON。
// 数值无法解析时返回错误，而不是静默忽略。
func EnvOverlay(environ []string) (Config, error) {
	var over Config
	var errs []error
	num := func(key, val string, dst *int) {
		v, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			return
		}
		*dst = v
	}
	for _, kv := range environ {
		if !strings.HasPrefix(kv, EnvPrefix) {
			continue
		}
		key, val, ok := strings.Cut(strings.TrimPrefix(kv, EnvPrefix), "=")
		if !ok || key == "" {
			continue
		}
		switch key {
		case "LOG_LEVEL":
			over.Logging.Level = strings.TrimSpace(val)
		case "LOG_DIR":
			over.Logging.Dir = strings.TrimSpace(val)
		case "LOG_MAX_BYTES":
			var n int
			num(key, val, &n)
			over.Logging.MaxBytes = int64(n)
		case "COMPONENTS_READER":
			over.Components.Reader = strings.TrimSpace(val)
		case "COMPONENTS_WRITER":
			over.Components.Writer = strings.TrimSpace(val)
		case "OPTIONS_READER_JSON":
			if strings.TrimSpace(val) != "" {
				over.Options.Reader = json.RawMessage(val)
			}
		case "OPTIONS_WRITER_JSON":
			if strings.TrimSpace(val) != "" {
				over.Options.Writer = json.RawMessage(val)
			}
		case "OUTPUT_DIR":
			if dir := strings.TrimSpace(val); dir != "" {
				b, _ := json.Marshal(map[string]string{"dir": dir})
				over.Options.Writer = b
			}
		case "SERVER_ADDR":
			over.Server.Addr = strings.TrimSpace(val)
		case "SERVER_TIMEOUT_SECONDS":
			num(key, val, &over.Server.TimeoutSeconds)
		case "SERVER_MAX_IN_FLIGHT":
			num(key, val, &over.Server.MaxInFlight)
		default:
			// NODES__<name>__JSON：节点默认输入
			name, ok := strings.CutPrefix(key, "NODES__")
			if !ok {
				continue
			}
			name, ok = strings.CutSuffix(name, "__JSON")
			if !ok || name == "" || strings.TrimSpace(val) == "" {
				continue
			}
			if over.Nodes == nil {
				over.Nodes = map[string]json.RawMessage{}
			}
			over.Nodes[name] = json.RawMessage(val)
		}
	}
	if len(errs) > 0 {
		return over, fmt.Errorf("%w: %w", contract.ErrConfigInvalid, errors.Join(errs...))
	}
	return over, nil
}

func cloneRaw(in json.RawMessage) json.RawMessage {
	if len(in) == 0 {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
