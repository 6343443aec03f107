package contract

// SourceID: 逻辑输入源ID（通常为路径，需规范化，跨平台一致；STDIN 固定为 "stdin"）。
type SourceID string

// ArtifactID: 输出工件标识。与 SourceID 共用同一表示，强调“结果工件”。
type ArtifactID = SourceID

// PortType: 端口的值类型（与宿主的类型名保持一致）。
type PortType string

const (
	PortInt    PortType = "INT"
	PortString PortType = "STRING"
)

// Port: 节点输出端口声明。
// List=true 表示该端口输出为序列（宿主逐元素展开执行）。
type Port struct {
	Name string   `json:"name"`
	Type PortType `json:"type"`
	List bool     `json:"list"`
}

// NodeSpec: 节点的只读元信息。
type NodeSpec struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	Outputs     []Port `json:"outputs"`
}

// Output: 单个输出端口的取值。List 端口的 Value 为切片。
type Output struct {
	Name  string `json:"name"`
	List  bool   `json:"list"`
	Value any    `json:"value"`
}

// Result: 按端口声明顺序排列的输出集合。
type Result []Output

// Get 按端口名取值；不存在时返回 nil,false。
func (r Result) Get(name string) (any, bool) {
	for _, o := range r {
		if o.Name == name {
			return o.Value, true
		}
	}
	return nil, false
}
