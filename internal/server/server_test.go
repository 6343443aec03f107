package server

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"t2nodes/pkg/registry"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	nodes, err := registry.BuildNodes(nil)
	require.NoError(t, err)
	ts := httptest.NewServer(New(nodes, nil, Options{Version: "test"}).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestHealthAndNodes(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Content-Type"))

	resp, err = http.Get(ts.URL + "/nodes")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body struct {
		Nodes []struct {
			Name        string `json:"name"`
			DisplayName string `json:"display_name"`
		} `json:"nodes"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Nodes, 4)
	assert.Equal(t, "PromptCombiner", body.Nodes[0].Name)
	assert.Equal(t, "T2 Seed Index", body.Nodes[2].DisplayName)
}

func TestExecuteSeedIndex(t *testing.T) {
	ts := newTestServer(t)
	resp, out := post(t, ts.URL+"/nodes/SeedIndex",
		`{"task_index":1,"seed_start":10,"seeds_total":3,"seed_method":"decrement","batch_size":2}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	outputs := out["outputs"].([]any)
	require.Len(t, outputs, 3)
	seed := outputs[0].(map[string]any)
	assert.Equal(t, "seed", seed["name"])
	assert.Equal(t, []any{float64(8)}, seed["value"])
}

func TestExecuteErrors(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := post(t, ts.URL+"/nodes/Nope", `{}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, out := post(t, ts.URL+"/nodes/TextJoin", `{"bogus":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", out["error"].(map[string]any)["code"])

	// 10 个任务、batch_size=3：batch_index=4 超出上限 3
	resp, out = post(t, ts.URL+"/nodes/SeedIndex",
		`{"task_index":4,"seeds_total":10,"batch_size":3}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	e := out["error"].(map[string]any)
	assert.Equal(t, float64(4), e["batch_index"])
	assert.Equal(t, float64(3), e["max"])
}

func TestSweepStream(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/sweep", "application/json",
		strings.NewReader(`{"seeds_total":3,"indexes_total":2,"batch_size":4,"seed_start":100}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2", resp.Header.Get("X-Batches"))

	sc := bufio.NewScanner(resp.Body)
	lines := 0
	for sc.Scan() {
		lines++
	}
	assert.Equal(t, 6, lines)

	resp2, _ := post(t, ts.URL+"/sweep", `{"seeds_total":3,"batch_index":9}`)
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	post(t, ts.URL+"/nodes/TextJoin", `{"values":["a","b"]}`)
	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var sb strings.Builder
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		sb.WriteString(sc.Text())
		sb.WriteByte('\n')
	}
	assert.Contains(t, sb.String(), "t2nodes_op_total")
}
