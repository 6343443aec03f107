package diag

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// 级别定义
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// ParseLevel 解析级别字符串；未知值按 info 处理。
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug
	case "warn":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

// NewCorrID 生成进程级关联 ID。
func NewCorrID() string { return uuid.NewString() }

// lineSink 接收一行不含换行符的日志。
type lineSink interface {
	WriteLine(b []byte) error
}

type writerSink struct{ w io.Writer }

func (s writerSink) WriteLine(b []byte) error {
	_, err := s.w.Write(append(b, '\n'))
	return err
}

// Logger 为最小结构化日志器：单行 JSON；零值与 nil 均为 no-op。
type Logger struct {
	corrID string
	level  Level
	sink   lineSink
	mu     sync.Mutex
}

// NewLogger 将日志写入 dir 下的轮转文件；dir 为空时写 stderr。
func NewLogger(corrID, level, dir string, maxBytes int64) *Logger {
	l := &Logger{corrID: corrID, level: ParseLevel(level)}
	if strings.TrimSpace(dir) != "" {
		l.sink = NewRotatingFile(dir, maxBytes)
	}
	return l
}

// NewLoggerTo 将日志写入 w（测试与 serve 前台模式）。
func NewLoggerTo(corrID, level string, w io.Writer) *Logger {
	return &Logger{corrID: corrID, level: ParseLevel(level), sink: writerSink{w: w}}
}

// CorrID 返回关联 ID。
func (l *Logger) CorrID() string {
	if l == nil {
		return ""
	}
	return l.corrID
}

// Close 释放文件句柄。
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	if c, ok := l.sink.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Event 为标准事件结构。
type Event struct {
	Level  string            `json:"level"`
	TS     string            `json:"ts"`
	CorrID string            `json:"corr_id"`
	Comp   string            `json:"comp"`
	Stage  string            `json:"stage"` // start|finish|error|note
	Code   string            `json:"code,omitempty"`
	DurMS  int64             `json:"dur_ms,omitempty"`
	Count  int64             `json:"count,omitempty"`
	Node   string            `json:"node,omitempty"`
	Batch  string            `json:"batch_id,omitempty"`
	Msg    string            `json:"msg"`
	KV     map[string]string `json:"kv,omitempty"`
}

func (l *Logger) log(lv Level, ev Event) {
	if l == nil || lv < l.level {
		return
	}
	ev.Level = lv.String()
	ev.TS = NowUTC()
	ev.CorrID = l.corrID
	b, _ := json.Marshal(ev)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sink == nil {
		_, _ = os.Stderr.Write(append(b, '\n'))
		return
	}
	if err := l.sink.WriteLine(b); err != nil {
		fmt.Fprintf(os.Stderr, "logger sink error: %v\n", err)
		_, _ = os.Stderr.Write(append(b, '\n'))
	}
}

// Start 记录 start 事件；返回计时器用于 Finish。
func (l *Logger) Start(comp, msg string) *Timer {
	l.log(Info, Event{Comp: comp, Stage: "start", Msg: msg})
	return &Timer{l: l, comp: comp, t0: time.Now()}
}

// StartWith 记录带 node/batch_id 与可选键值的 start。
func (l *Logger) StartWith(comp, msg, node, batch string, kv map[string]string) *Timer {
	l.log(Info, Event{Comp: comp, Stage: "start", Node: node, Batch: batch, Msg: msg, KV: kv})
	return &Timer{l: l, comp: comp, node: node, batch: batch, t0: time.Now()}
}

// DebugStart 仅在 level=debug 时输出。
func (l *Logger) DebugStart(comp, msg, node, batch string, kv map[string]string) {
	l.log(Debug, Event{Comp: comp, Stage: "start", Node: node, Batch: batch, Msg: msg, KV: kv})
}

// Warn 记录非致命提示（例如配置回退）。
func (l *Logger) Warn(comp, msg string, kv map[string]string) {
	l.log(Warn, Event{Comp: comp, Stage: "note", Msg: msg, KV: kv})
}

// Error 记录 error 事件。
func (l *Logger) Error(comp string, code Code, msg string, since *time.Time) {
	l.ErrorWith(comp, code, msg, since, "", "", nil)
}

// ErrorWith 支持 node/batch_id 与键值（例如 HTTP 状态码）。
func (l *Logger) ErrorWith(comp string, code Code, msg string, since *time.Time, node, batch string, kv map[string]string) {
	var dur int64
	if since != nil {
		dur = time.Since(*since).Milliseconds()
	}
	l.log(Error, Event{Comp: comp, Stage: "error", Code: string(code), DurMS: dur, Msg: msg, Node: node, Batch: batch, KV: kv})
}

// Timer 用于 start→finish 计时。
type Timer struct {
	l     *Logger
	comp  string
	node  string
	batch string
	t0    time.Time
}

// Since 返回起点，供 Error 计算耗时。
func (t *Timer) Since() *time.Time {
	if t == nil {
		return nil
	}
	return &t.t0
}

// Finish 记录 finish 并返回耗时。
func (t *Timer) Finish(msg string, count int64) time.Duration {
	if t == nil {
		return 0
	}
	d := time.Since(t.t0)
	t.l.log(Info, Event{Comp: t.comp, Stage: "finish", DurMS: d.Milliseconds(), Count: count, Node: t.node, Batch: t.batch, Msg: msg})
	return d
}

// Fail 记录带分类的 error 事件并返回耗时。
func (t *Timer) Fail(err error) time.Duration {
	if t == nil || err == nil {
		return 0
	}
	d := time.Since(t.t0)
	t.l.ErrorWith(t.comp, Classify(err), err.Error(), &t.t0, t.node, t.batch, nil)
	return d
}
