package config

import (
	"encoding/json"
)

// Config: 运行期只读配置（一次解析，运行期不变）。
// 键使用 snake_case；任何格式下未知字段都在解析期失败。
type Config struct {
	Logging Logging `json:"logging"`

	// 组件名选择（空则使用默认名）。
	Components Components `json:"components"`
	// 各组件 Options 子树，原样 JSON 传入工厂。
	Options Options `json:"options"`

	Server Server `json:"server"`

	// Nodes: 节点名 → 默认输入（原样 JSON），每次调用的输入在其上覆盖。
	Nodes map[string]json.RawMessage `json:"nodes,omitempty"`
}

// Logging: 等级与轮转文件位置。Dir 为空时写 stderr。
type Logging struct {
	Level    string `json:"level" validate:"omitempty,oneof=debug info warn error"`
	Dir      string `json:"dir"`
	MaxBytes int64  `json:"max_bytes" validate:"gte=0"`
}

// Components: 组件名选择（注册表中的实现名）。
type Components struct {
	Reader string `json:"reader"`
	Writer string `json:"writer"`
}

// Options: 各组件的原样 JSON Options。
type Options struct {
	Reader json.RawMessage `json:"reader,omitempty"`
	Writer json.RawMessage `json:"writer,omitempty"`
}

// Server: HTTP 入口。
type Server struct {
	Addr           string `json:"addr" validate:"required,hostname_port"`
	TimeoutSeconds int    `json:"timeout_seconds" validate:"gte=1,lte=3600"`
	MaxInFlight    int    `json:"max_in_flight" validate:"gte=1"`
}
