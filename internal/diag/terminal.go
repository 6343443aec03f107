package diag

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

// Terminal 是 sweep 的终端进度提示（非日志）。
// TTY 下单行 \r 覆盖并带样式标题；非 TTY 只在关键节点分行打印。
// 并发安全；写失败后进入禁用态；nil 接收者为 no-op。
type Terminal struct {
	w       io.Writer
	enabled bool
	isTTY   bool

	label     string
	total     int
	done      int
	tasks     int
	runStart  time.Time
	lastLen   int
	lastFlush time.Time

	mu sync.Mutex
}

// NewTerminal 构造终端提示器；enabled=false 时总是 no-op。
func NewTerminal(w io.Writer, enabled bool) *Terminal {
	if w == nil {
		w = os.Stderr
	}
	return &Terminal{w: w, enabled: enabled, isTTY: IsTTY(w)}
}

// IsTTY 判断 w 是否为交互终端；CI 环境总视为非 TTY。
func IsTTY(w io.Writer) bool {
	if os.Getenv("CI") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// RunStart 标记一次 sweep 的开始。
func (t *Terminal) RunStart(label string, batchesTotal, tasksTotal int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	t.label = safe(label)
	t.total = batchesTotal
	t.done = 0
	t.tasks = 0
	t.runStart = time.Now()
	head := fmt.Sprintf("[sweep] %s | 批次=%d | 任务=%d", t.label, batchesTotal, tasksTotal)
	if t.isTTY {
		head = headerStyle.Render(head)
	}
	t.println(head)
}

// Progress 报告已完成批次数与累计任务数（TTY 下 100ms 节流）。
func (t *Terminal) Progress(done, tasks int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	t.done = done
	t.tasks = tasks
	if !t.isTTY {
		return
	}
	now := time.Now()
	if now.Sub(t.lastFlush) < 100*time.Millisecond && done < t.total {
		return
	}
	t.lastFlush = now
	t.printInline(fmt.Sprintf("[sweep] 进度 %d/%d | 任务 %d | 用时 %s",
		t.done, t.total, t.tasks, formatDur(time.Since(t.runStart))))
}

// RunFinish 打印总览。
func (t *Terminal) RunFinish(ok bool) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	tag := "ok"
	if !ok {
		tag = "fail"
	}
	if t.isTTY && t.lastLen > 0 {
		t.printInline("")
	}
	t.println(fmt.Sprintf("[%s] %s | 批次 %d/%d | 任务 %d | 总用时 %s",
		tag, t.label, t.done, t.total, t.tasks, formatDur(time.Since(t.runStart))))
}

func (t *Terminal) println(s string) {
	if _, err := io.WriteString(t.w, s+"\n"); err != nil {
		t.enabled = false
	}
	t.lastLen = 0
}

func (t *Terminal) printInline(s string) {
	// 新行比旧行短时用空格覆盖残留
	pad := 0
	if l := visLen(s); t.lastLen > l {
		pad = t.lastLen - l
	}
	if _, err := io.WriteString(t.w, "\r"+s+strings.Repeat(" ", pad)); err != nil {
		t.enabled = false
		return
	}
	t.lastLen = visLen(s)
}

func visLen(s string) int { return len([]rune(s)) }

func safe(s string) string {
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
}

func formatDur(d time.Duration) string {
	if d < time.Second {
		ms := d.Milliseconds()
		if ms < 0 {
			ms = 0
		}
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.1fs", float64(d.Milliseconds())/1000.0)
}
