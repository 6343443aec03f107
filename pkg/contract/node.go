package contract

import (
	"context"
	"encoding/json"
)

// Node: 单个节点的执行契约。
// 约束：
//  1. Execute 为纯计算，不做 I/O，不持有跨调用状态；
//  2. 输入为严格 JSON（未知字段即失败），缺省字段取节点默认值；
//  3. 输出端口顺序与 Spec().Outputs 一致；
//  4. 输入校验失败返回可被 errors.Is(err, ErrInvalidInput) 识别的错误；
//  5. 可被多个调用方并发调用。
type Node interface {
	Spec() NodeSpec
	Execute(ctx context.Context, in json.RawMessage) (Result, error)
}
