package textjoin

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"t2nodes/pkg/contract"
)

func TestExecute(t *testing.T) {
	n, err := New(nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"default separator", `{"values":["masterpiece",null,"  ","portrait"]}`, "masterpiece, portrait"},
		{"newline separator", `{"separator":"\\n","values":["a","b"]}`, "a\nb"},
		{"nothing connected", `{}`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := n.Execute(context.Background(), json.RawMessage(tc.raw))
			if err != nil {
				t.Fatalf("execute: %v", err)
			}
			v, _ := res.Get("text")
			if v.(string) != tc.want {
				t.Fatalf("want %q got %q", tc.want, v)
			}
		})
	}
}

// TestDefaultsNotShared 默认片段在多次调用间保持不变。
func TestDefaultsNotShared(t *testing.T) {
	n, err := New(json.RawMessage(`{"values":["base","style"]}`))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := n.Execute(context.Background(), json.RawMessage(`{"values":["x"]}`)); err != nil {
		t.Fatalf("execute: %v", err)
	}
	res, err := n.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	v, _ := res.Get("text")
	if v.(string) != "base, style" {
		t.Fatalf("默认值被污染: %q", v)
	}
}

func TestUnknownSlot(t *testing.T) {
	n, _ := New(nil)
	if _, err := n.Execute(context.Background(), json.RawMessage(`{"quality":"best"}`)); !errors.Is(err, contract.ErrInvalidInput) {
		t.Fatalf("未知字段应报错: %v", err)
	}
}
