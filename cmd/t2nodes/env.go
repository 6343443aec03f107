package main

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	cfgpkg "t2nodes/internal/config"
	"t2nodes/pkg/registry"
)

// loadDotEnv 读取 KEY=VALUE 行并写入进程环境；已存在的变量不覆盖，文件不存在不算错误。
func loadDotEnv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()
	s := bufio.NewScanner(f)
	for s.Scan() {
		key, val, ok := parseEnvLine(s.Text())
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		_ = os.Setenv(key, val)
	}
	return s.Err()
}

func parseEnvLine(raw string) (key, val string, ok bool) {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
	key, val, ok = strings.Cut(line, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", false
	}
	val = strings.TrimSpace(val)
	// 去除成对引号；双引号内做最小转义
	if n := len(val); n >= 2 {
		switch {
		case val[0] == '\'' && val[n-1] == '\'':
			val = val[1 : n-1]
		case val[0] == '"' && val[n-1] == '"':
			val = strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\"`, `"`, `\\`, `\`).Replace(val[1 : n-1])
		}
	}
	return key, val, true
}

// writeNew 创建新文件并写入；已存在时返回 os.ErrExist。path 为 "-" 时写 stdout。
func writeNew(path string, stdout io.Writer, b []byte) error {
	if path == "-" {
		_, err := stdout.Write(b)
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// writeConfig 按格式序列化配置模板，不覆盖已有文件。
func writeConfig(path, format string, stdout io.Writer, c cfgpkg.Config) error {
	b, err := cfgpkg.Encode(c, format)
	if err != nil {
		return err
	}
	return writeNew(path, stdout, b)
}

// dotEnvTemplate 列出全部受支持的环境变量覆盖项。
func dotEnvTemplate() string {
	var b strings.Builder
	p := cfgpkg.EnvPrefix
	b.WriteString("# t2nodes .env 模板（由 init-config 生成）\n")
	b.WriteString("# 优先级：CLI > ENV(.env) > 配置文件 > 默认值\n")
	b.WriteString("# 空值表示未设置。\n\n")

	b.WriteString("# 配置来源（二选一）\n")
	b.WriteString(p + "CONFIG_FILE=\n")
	b.WriteString(p + "CONFIG_JSON=\n\n")

	b.WriteString("# 日志\n")
	b.WriteString(p + "LOG_LEVEL=\n")
	b.WriteString(p + "LOG_DIR=\n")
	b.WriteString(p + "LOG_MAX_BYTES=\n\n")

	b.WriteString("# 组件\n")
	b.WriteString(p + "COMPONENTS_READER=\n")
	b.WriteString(p + "COMPONENTS_WRITER=\n")
	b.WriteString(p + "OPTIONS_READER_JSON=\n")
	b.WriteString(p + "OPTIONS_WRITER_JSON=\n")
	b.WriteString(p + "OUTPUT_DIR=\n\n")

	b.WriteString("# HTTP\n")
	b.WriteString(p + "SERVER_ADDR=\n")
	b.WriteString(p + "SERVER_TIMEOUT_SECONDS=\n")
	b.WriteString(p + "SERVER_MAX_IN_FLIGHT=\n\n")

	b.WriteString("# 节点默认输入（原样 JSON）\n")
	for _, n := range registry.NodeNames() {
		b.WriteString(p + "NODES__" + n + "__JSON=\n")
	}
	return b.String()
}

// writeDotEnv 生成 .env 模板；已存在时跳过。
func writeDotEnv(path string) error {
	err := writeNew(path, nil, []byte(dotEnvTemplate()))
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	return err
}
