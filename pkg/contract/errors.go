package contract

import "errors"

// 最小错误分类（用于上层策略判定与退出码映射）。
var (
	// ErrInvalidInput: 节点输入不合法（类型/范围/未知字段/预检失败）。
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownNode: 注册表中不存在该节点名。
	ErrUnknownNode = errors.New("unknown node")
	// ErrPathInvalid: 目标标识映射为无效/越界路径（例如绝对路径或 '..' 逃逸）。
	ErrPathInvalid = errors.New("path invalid")
	// ErrInvariantViolation: 领域不变量违例（通用哨兵）。
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrConfigInvalid: 配置文件/环境变量/参数组合不合法。
	ErrConfigInvalid = errors.New("config invalid")
)
