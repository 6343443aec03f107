// Package server 通过 HTTP 暴露已注册的节点。
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"t2nodes/internal/diag"
	"t2nodes/internal/sweep"
	"t2nodes/pkg/contract"
	"t2nodes/pkg/seedindex"
	"t2nodes/plugins/node/nodeio"
)

// maxBody 为请求体上限；提示词列表是文本，不接受上传。
const maxBody = 4 << 20

// Options 路由参数。
type Options struct {
	Timeout     time.Duration
	MaxInFlight int
	Version     string
}

// Server 提供节点执行与 sweep。
type Server struct {
	nodes  map[string]contract.Node
	logger *diag.Logger
	opts   Options
}

// New 基于装配好的节点集合创建服务；logger 可为 nil。
func New(nodes map[string]contract.Node, logger *diag.Logger, opts Options) *Server {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = 64
	}
	return &Server{nodes: nodes, logger: logger, opts: opts}
}

// Handler 返回挂载全部路由的 chi 路由器。
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.opts.Timeout))
	r.Use(middleware.Throttle(s.opts.MaxInFlight))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.opts.Version})
	})
	r.Get("/nodes", s.handleListNodes)
	r.Post("/nodes/{name}", s.handleExecute)
	r.Post("/sweep", s.handleSweep)
	r.Handle("/metrics", promhttp.HandlerFor(diag.Registry(), promhttp.HandlerOpts{}))
	return r
}

func (s *Server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	specs := make([]contract.NodeSpec, 0, len(s.nodes))
	for _, n := range s.nodes {
		specs = append(specs, n.Spec())
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	writeJSON(w, http.StatusOK, map[string]any{"nodes": specs})
}

type executeResponse struct {
	Node    string          `json:"node"`
	Outputs contract.Result `json:"outputs"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	reqID := middleware.GetReqID(r.Context())
	timer := s.logger.StartWith("server", "execute", name, "", map[string]string{"request_id": reqID})

	n, ok := s.nodes[name]
	if !ok {
		s.fail(w, timer, fmt.Errorf("%w: %q", contract.ErrUnknownNode, name))
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		s.fail(w, timer, err)
		return
	}
	res, err := n.Execute(r.Context(), body)
	if err != nil {
		s.fail(w, timer, err)
		return
	}
	d := timer.Finish("execute", int64(len(res)))
	diag.IncOp("server", "execute", "success")
	diag.ObserveDuration("server", "execute", d.Milliseconds())
	writeJSON(w, http.StatusOK, executeResponse{Node: name, Outputs: res})
}

// sweepRequest 为枚举请求加上结束批次（不含）。
type sweepRequest struct {
	seedindex.Request
	To int `json:"to"`
}

// handleSweep 以 NDJSON 流式输出 [batch_index, to) 的全部任务。
// 预检在写出响应头之前完成，失败时返回 400。
func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	timer := s.logger.StartWith("server", "sweep", "SeedIndex", "", map[string]string{"request_id": reqID})

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		s.fail(w, timer, err)
		return
	}
	in := sweepRequest{Request: seedindex.Request{
		BatchSize: 1, SeedsTotal: 1, IndexesTotal: 1,
		SeedMethod: seedindex.Increment, Order: seedindex.SeedThenIndex,
	}}
	if err := nodeio.Decode(body, &in); err != nil {
		s.fail(w, timer, err)
		return
	}
	set := sweep.Settings{Request: in.Request, To: in.To, Label: reqID}
	from, to, err := set.Range()
	if err != nil {
		s.fail(w, timer, fmt.Errorf("%w: %w", contract.ErrInvalidInput, err))
		return
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("X-Batches", strconv.Itoa(to-from))
	w.WriteHeader(http.StatusOK)
	sum, err := sweep.Run(r.Context(), set, sweep.NewJSONL(w), s.logger, nil)
	if err != nil {
		// 头已写出，只能记录
		timer.Fail(err)
		diag.IncOp("server", "sweep", "error")
		return
	}
	timer.Finish("sweep", int64(sum.Tasks))
	diag.IncOp("server", "sweep", "success")
}

func (s *Server) fail(w http.ResponseWriter, timer *diag.Timer, err error) {
	timer.Fail(err)
	code := diag.Classify(err)
	diag.IncOp("server", "request", "error")
	diag.IncError("server", code)
	writeError(w, diag.HTTPStatus(err), code, err)
}

// writeJSON 以给定状态码写出 JSON 响应。
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Message    string `json:"message"`
	Code       string `json:"code"`
	BatchIndex *int   `json:"batch_index,omitempty"`
	Max        *int   `json:"max,omitempty"`
}

// writeError 写出 JSON 错误；预检失败时附带越界的 batch_index 与允许的最大值。
func writeError(w http.ResponseWriter, status int, code diag.Code, err error) {
	body := errorBody{Message: err.Error(), Code: string(code)}
	var verr *seedindex.ValidationError
	if errors.As(err, &verr) {
		body.BatchIndex, body.Max = &verr.BatchIndex, &verr.Max
	}
	writeJSON(w, status, map[string]any{"error": body})
}
