//go:build !windows

package filesystem

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"t2nodes/pkg/contract"
)

// TestWalkDirNonRegular 非常规文件被忽略 (Unix only - uses mkfifo)
func TestWalkDirNonRegular(t *testing.T) {
	root := t.TempDir()
	fifo := filepath.Join(root, "fifo.txt")
	if err := syscall.Mkfifo(fifo, 0o644); err != nil {
		t.Fatalf("mkfifo: %v", err)
	}
	ids := collect(t, New(nil), root)
	if len(ids) != 0 {
		t.Fatalf("non-regular should skip, visited %#v", ids)
	}
}

// TestIterateSymlink 指向常规文件的链接被读取 (Unix only)
func TestIterateSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "t.txt")
	if err := os.WriteFile(target, []byte("ok"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	link := filepath.Join(dir, "l.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	var visited []string
	err := New(nil).Iterate(context.Background(), []string{link}, func(id contract.SourceID, rc io.ReadCloser) error {
		visited = append(visited, string(id))
		return rc.Close()
	})
	if err != nil {
		t.Fatalf("iterate: %v", err)
	}
	if len(visited) != 1 || !strings.Contains(visited[0], "l.txt") {
		t.Fatalf("symlink not visited: %#v", visited)
	}
}
