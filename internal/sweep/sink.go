package sweep

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sync"

	"t2nodes/pkg/contract"
)

// Row 为 JSONL 输出中的一行（一个任务）。
type Row struct {
	Batch       int    `json:"batch"`
	ID          int    `json:"id"`
	Seed        int64  `json:"seed"`
	Index       int64  `json:"index"`
	Description string `json:"description"`
}

func encodeBatch(enc *json.Encoder, b Batch) error {
	for _, t := range b.Tasks {
		row := Row{Batch: b.Index, ID: t.ID, Seed: t.Seed, Index: t.Index, Description: t.Description}
		if err := enc.Encode(&row); err != nil {
			return err
		}
	}
	return nil
}

// JSONL 将每个任务作为一行 JSON 写入 w（例如 stdout）。
type JSONL struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONL(w io.Writer) *JSONL { return &JSONL{enc: json.NewEncoder(w)} }

func (s *JSONL) Put(ctx context.Context, b Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return encodeBatch(s.enc, b)
}

// Artifacts 将每个批次写成一个 JSONL 产物：<prefix>/batch-<index>.jsonl。
type Artifacts struct {
	W      contract.Writer
	Prefix string
}

// ArtifactID 返回批次对应的产物标识。
func (s Artifacts) ArtifactID(index int) contract.ArtifactID {
	name := fmt.Sprintf("batch-%06d.jsonl", index)
	if s.Prefix == "" {
		return contract.ArtifactID(name)
	}
	return contract.ArtifactID(path.Join(s.Prefix, name))
}

func (s Artifacts) Put(ctx context.Context, b Batch) error {
	var buf bytes.Buffer
	if err := encodeBatch(json.NewEncoder(&buf), b); err != nil {
		return err
	}
	return s.W.Write(ctx, s.ArtifactID(b.Index), &buf)
}

var (
	_ Sink = (*JSONL)(nil)
	_ Sink = Artifacts{}
)
