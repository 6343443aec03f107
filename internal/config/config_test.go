package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"t2nodes/pkg/contract"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

// 解析 JSON / TOML / YAML，结果一致
func TestLoadFileFormats(t *testing.T) {
	files := map[string]string{
		"c.json": `{"logging":{"level":"debug"},"server":{"addr":"0.0.0.0:9000"},"nodes":{"SeedIndex":{"seeds_total":3}}}`,
		"c.toml": `
[logging]
level = "debug"
[server]
addr = "0.0.0.0:9000"
[nodes.SeedIndex]
seeds_total = 3
`,
		"c.yaml": `
logging:
  level: debug
server:
  addr: 0.0.0.0:9000
nodes:
  SeedIndex:
    seeds_total: 3
`,
	}
	for name, body := range files {
		t.Run(name, func(t *testing.T) {
			cfg, err := LoadFile(writeFile(t, name, body))
			require.NoError(t, err)
			assert.Equal(t, "debug", cfg.Logging.Level)
			assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
			assert.JSONEq(t, `{"seeds_total":3}`, string(cfg.Nodes["SeedIndex"]))
		})
	}
}

// 未知键在任意格式下都失败
func TestLoadFileUnknown(t *testing.T) {
	for name, body := range map[string]string{
		"u.json": `{"unknown":1}`,
		"u.toml": "unknown = 1\n",
		"u.yaml": "logging:\n  colour: red\n",
		"u.ini":  "a=b",
	} {
		_, err := LoadFile(writeFile(t, name, body))
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, contract.ErrConfigInvalid), name)
	}
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, contract.ErrConfigInvalid)
	_, err = LoadJSON("", nil)
	assert.ErrorIs(t, err, contract.ErrConfigInvalid)
}

// ENV 覆盖部分字段
func TestEnvOverlay(t *testing.T) {
	env := []string{
		"T2_LOG_LEVEL=warn",
		"T2_SERVER_ADDR=:8080",
		"T2_SERVER_MAX_IN_FLIGHT=8",
		"T2_OUTPUT_DIR=/tmp/out",
		"T2_NODES__TextJoin__JSON={\"separator\":\"|\"}",
		"T2_UNRELATED=1",
		"OTHER=1",
	}
	over, err := EnvOverlay(env)
	require.NoError(t, err)
	assert.Equal(t, "warn", over.Logging.Level)
	assert.Equal(t, ":8080", over.Server.Addr)
	assert.Equal(t, 8, over.Server.MaxInFlight)
	assert.JSONEq(t, `{"dir":"/tmp/out"}`, string(over.Options.Writer))
	assert.JSONEq(t, `{"separator":"|"}`, string(over.Nodes["TextJoin"]))

	_, err = EnvOverlay([]string{"T2_SERVER_TIMEOUT_SECONDS=abc"})
	assert.ErrorIs(t, err, contract.ErrConfigInvalid)
}

// 优先级：后者覆盖前者；节点默认值按键替换
func TestMerge(t *testing.T) {
	base := Defaults()
	base.Nodes = map[string]json.RawMessage{"SeedIndex": json.RawMessage(`{"seeds_total":2}`)}
	over := Config{
		Logging: Logging{Level: " debug "},
		Server:  Server{TimeoutSeconds: 5},
		Nodes:   map[string]json.RawMessage{"TextJoin": json.RawMessage(`{}`)},
	}
	got := Merge(base, over)
	assert.Equal(t, "debug", got.Logging.Level)
	assert.Equal(t, "logs", got.Logging.Dir)
	assert.Equal(t, 5, got.Server.TimeoutSeconds)
	assert.Equal(t, base.Server.Addr, got.Server.Addr)
	assert.Len(t, got.Nodes, 2)
	assert.Len(t, base.Nodes, 1, "base must not be mutated")
}

func TestAssembleDefaults(t *testing.T) {
	rt, err := Assemble(DefaultTemplateConfig())
	require.NoError(t, err)
	assert.NotNil(t, rt.Reader)
	assert.NotNil(t, rt.Writer)
	assert.Len(t, rt.Nodes, 4)
	require.NoError(t, Validate(Defaults()))
}

func TestValidateErrors(t *testing.T) {
	cases := map[string]func(*Config){
		"empty addr":     func(c *Config) { c.Server.Addr = "" },
		"bad level":      func(c *Config) { c.Logging.Level = "loud" },
		"zero timeout":   func(c *Config) { c.Server.TimeoutSeconds = 0 },
		"unknown reader": func(c *Config) { c.Components.Reader = "s3" },
		"unknown writer": func(c *Config) { c.Components.Writer = "s3" },
		"reader options": func(c *Config) { c.Options.Reader = json.RawMessage(`{"nope":1}`) },
		"writer no dir":  func(c *Config) { c.Options.Writer = json.RawMessage(`{}`) },
		"unknown node":   func(c *Config) { c.Nodes = map[string]json.RawMessage{"Nope": nil} },
		"bad default":    func(c *Config) { c.Nodes = map[string]json.RawMessage{"SeedIndex": json.RawMessage(`{"seeds_total":0}`)} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Defaults()
			mutate(&cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, contract.ErrConfigInvalid)
		})
	}
	err := Validate(Config{Server: Server{Addr: "x:1", TimeoutSeconds: 1, MaxInFlight: 0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.max_in_flight")
}

// 模板在三种格式下都能回读并通过校验
func TestEncodeRoundTrip(t *testing.T) {
	for _, format := range []string{"json", "toml", "yaml"} {
		t.Run(format, func(t *testing.T) {
			b, err := Encode(DefaultTemplateConfig(), format)
			require.NoError(t, err)
			cfg, err := LoadFile(writeFile(t, "config."+format, string(b)))
			require.NoError(t, err)
			require.NoError(t, Validate(cfg))
			assert.Equal(t, int64(10*1024*1024), cfg.Logging.MaxBytes)
			assert.Len(t, cfg.Nodes, 4)
			if format == "toml" {
				assert.False(t, strings.Contains(string(b), "65536.0"), "integers must stay integers")
			}
		})
	}
	_, err := Encode(Defaults(), "ini")
	assert.Error(t, err)
}
