package seedindex

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func base(seeds, indexes int, order Order) Request {
	return Request{
		BatchIndex:   0,
		BatchSize:    seeds * indexes,
		SeedsTotal:   seeds,
		SeedMethod:   Increment,
		IndexesTotal: indexes,
		Order:        order,
	}
}

type pair struct{ s, i int }

func offsetsOf(tasks []Task) []pair {
	out := make([]pair, len(tasks))
	for k, t := range tasks {
		out[k] = pair{t.SeedOffset, t.IndexOffset}
	}
	return out
}

// 遍历 t=0..total-1 恰好覆盖整个网格一次。
func TestEnumerateBijection(t *testing.T) {
	for _, order := range []Order{SeedThenIndex, IndexThenSeed} {
		for _, dims := range [][2]int{{1, 1}, {1, 7}, {7, 1}, {3, 2}, {4, 5}, {13, 9}} {
			t.Run(fmt.Sprintf("%s/%dx%d", order, dims[0], dims[1]), func(t *testing.T) {
				tasks, err := Enumerate(base(dims[0], dims[1], order))
				require.NoError(t, err)
				require.Len(t, tasks, dims[0]*dims[1])
				seen := map[pair]bool{}
				for _, p := range offsetsOf(tasks) {
					assert.False(t, seen[p], "重复的偏移 %v", p)
					assert.True(t, p.s >= 0 && p.s < dims[0])
					assert.True(t, p.i >= 0 && p.i < dims[1])
					seen[p] = true
				}
				assert.Len(t, seen, dims[0]*dims[1])
			})
		}
	}
}

func TestEnumerateSeedThenIndex(t *testing.T) {
	tasks, err := Enumerate(base(3, 2, SeedThenIndex))
	require.NoError(t, err)
	assert.Equal(t, []pair{{0, 0}, {1, 0}, {2, 0}, {0, 1}, {1, 1}, {2, 1}}, offsetsOf(tasks))
}

func TestEnumerateIndexThenSeed(t *testing.T) {
	tasks, err := Enumerate(base(3, 2, IndexThenSeed))
	require.NoError(t, err)
	assert.Equal(t, []pair{{0, 0}, {0, 1}, {1, 0}, {1, 1}, {2, 0}, {2, 1}}, offsetsOf(tasks))
}

func TestEnumerateIncrementSeeds(t *testing.T) {
	req := base(3, 2, SeedThenIndex)
	req.SeedStart = 100
	req.IndexStart = 7
	tasks, err := Enumerate(req)
	require.NoError(t, err)
	seeds, indexes, descs := Columns(tasks)
	assert.Equal(t, []int64{100, 101, 102, 100, 101, 102}, seeds)
	assert.Equal(t, []int64{7, 7, 7, 8, 8, 8}, indexes)
	assert.Equal(t, "seed 100 index 7", descs[0])
	assert.Equal(t, "seed 102 index 8", descs[5])
}

func TestPolicyApply(t *testing.T) {
	assert.Equal(t, int64(8), Decrement.Apply(10, 2))
	assert.Equal(t, int64(12), Increment.Apply(10, 2))
	assert.Equal(t, int64(10), Fixed.Apply(10, 2))

	req := base(3, 1, SeedThenIndex)
	req.SeedStart = 10
	req.SeedMethod = Decrement
	tasks, err := Enumerate(req)
	require.NoError(t, err)
	assert.Equal(t, int64(8), tasks[2].Seed)

	req.SeedMethod = Fixed
	tasks, err = Enumerate(req)
	require.NoError(t, err)
	for _, tk := range tasks {
		assert.Equal(t, int64(10), tk.Seed)
	}
}

func TestEnumerateWindowClipped(t *testing.T) {
	req := Request{BatchIndex: 1, BatchSize: 3, SeedsTotal: 5, IndexesTotal: 1, SeedMethod: Increment, Order: SeedThenIndex}
	tasks, err := Enumerate(req)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, 3, tasks[0].ID)
	assert.Equal(t, 4, tasks[1].ID)
}

// batch_index*batch_size == total 通过预检，返回空结果。
func TestEnumerateEmptyWindow(t *testing.T) {
	req := Request{BatchIndex: 2, BatchSize: 3, SeedsTotal: 3, IndexesTotal: 2, SeedMethod: Fixed, Order: IndexThenSeed}
	tasks, err := Enumerate(req)
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestValidateBatchBeyondSpace(t *testing.T) {
	req := Request{BatchIndex: 3, BatchSize: 4, SeedsTotal: 5, IndexesTotal: 2, SeedMethod: Increment, Order: SeedThenIndex}
	tasks, err := Enumerate(req)
	require.Error(t, err)
	assert.Nil(t, tasks)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, 3, verr.BatchIndex)
	assert.Equal(t, 2, verr.Max)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Contains(t, err.Error(), "batch_index (3)")
}

func TestValidatePreconditions(t *testing.T) {
	ok := Request{BatchSize: 1, SeedsTotal: 1, IndexesTotal: 1, SeedMethod: Fixed, Order: SeedThenIndex}
	require.NoError(t, ok.Validate())

	cases := []struct {
		name string
		mut  func(*Request)
	}{
		{"seeds_total", func(r *Request) { r.SeedsTotal = 0 }},
		{"indexes_total", func(r *Request) { r.IndexesTotal = -1 }},
		{"batch_size", func(r *Request) { r.BatchSize = 0 }},
		{"batch_index", func(r *Request) { r.BatchIndex = -1 }},
		{"order", func(r *Request) { r.Order = "sideways" }},
		{"seed_method", func(r *Request) { r.SeedMethod = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := ok
			tc.mut(&r)
			err := r.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidRequest)
			var verr *ValidationError
			assert.False(t, errors.As(err, &verr))
		})
	}
}

func TestEnumerateIdempotent(t *testing.T) {
	req := Request{BatchIndex: 2, BatchSize: 4, SeedStart: -5, SeedsTotal: 4, IndexesTotal: 3, SeedMethod: Decrement, IndexStart: 10, Order: IndexThenSeed}
	a, err := Enumerate(req)
	require.NoError(t, err)
	b, err := Enumerate(req)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

// 按批顺序拼接全部批次，等价于一次性枚举整个空间。
func TestBatchesConcatenate(t *testing.T) {
	full := Request{BatchSize: 12, SeedsTotal: 4, IndexesTotal: 3, SeedMethod: Increment, Order: SeedThenIndex}
	want, err := Enumerate(full)
	require.NoError(t, err)

	var got []Task
	part := full
	part.BatchSize = 5
	n := Batches(full.Total(), part.BatchSize)
	assert.Equal(t, 3, n)
	for i := 0; i < n; i++ {
		part.BatchIndex = i
		ts, err := Enumerate(part)
		require.NoError(t, err)
		got = append(got, ts...)
	}
	assert.Equal(t, want, got)
}

func TestBatches(t *testing.T) {
	assert.Equal(t, 0, Batches(0, 3))
	assert.Equal(t, 0, Batches(3, 0))
	assert.Equal(t, 1, Batches(3, 3))
	assert.Equal(t, 2, Batches(5, 3))
}

func TestParse(t *testing.T) {
	o, err := ParseOrder("index_then_seed")
	require.NoError(t, err)
	assert.Equal(t, IndexThenSeed, o)
	_, err = ParseOrder("")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	p, err := ParsePolicy("decrement")
	require.NoError(t, err)
	assert.Equal(t, Decrement, p)
	_, err = ParsePolicy("random")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func BenchmarkEnumerate(b *testing.B) {
	req := Request{BatchIndex: 3, BatchSize: 1000, SeedsTotal: 1000, IndexesTotal: 1000, SeedMethod: Increment, Order: IndexThenSeed}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Enumerate(req); err != nil {
			b.Fatal(err)
		}
	}
}

func TestValidateSeedOverflow(t *testing.T) {
	cases := []struct {
		name   string
		start  int64
		policy Policy
		ok     bool
	}{
		{"increment_overflow", math.MaxInt64, Increment, false},
		{"increment_at_limit", math.MaxInt64 - 1, Increment, true},
		{"decrement_overflow", math.MinInt64, Decrement, false},
		{"decrement_at_limit", math.MinInt64 + 1, Decrement, true},
		{"fixed_any_start", math.MaxInt64, Fixed, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base(2, 1, SeedThenIndex)
			req.SeedStart = tc.start
			req.SeedMethod = tc.policy
			tasks, err := Enumerate(req)
			if !tc.ok {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidRequest)
				assert.Nil(t, tasks)
				return
			}
			require.NoError(t, err)
			require.Len(t, tasks, 2)
			seeds, _, _ := Columns(tasks)
			switch tc.policy {
			case Increment:
				assert.Equal(t, []int64{math.MaxInt64 - 1, math.MaxInt64}, seeds)
			case Decrement:
				assert.Equal(t, []int64{math.MinInt64 + 1, math.MinInt64}, seeds)
			default:
				assert.Equal(t, []int64{math.MaxInt64, math.MaxInt64}, seeds)
			}
		})
	}
}

func TestValidateIndexOverflow(t *testing.T) {
	req := base(1, 2, SeedThenIndex)
	req.IndexStart = math.MaxInt64
	err := req.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	req.IndexStart = math.MaxInt64 - 1
	require.NoError(t, req.Validate())
}
