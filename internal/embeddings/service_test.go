package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embedServer(t *testing.T, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings/", r.URL.Path)
		*calls++
		var req struct {
			Texts []string `json:"texts"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		vecs := make([][]float64, len(req.Texts))
		for i := range vecs {
			vecs[i] = []float64{0.25, 0.5, float64(i)}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"embeddings": vecs})
	}))
}

func TestGenerateBatchEmbeddings_LRUHitSkipsBackend(t *testing.T) {
	calls := 0
	srv := embedServer(t, &calls)
	defer srv.Close()

	svc := NewService(Config{BaseURL: srv.URL}, nil)
	ctx := context.Background()

	first, err := svc.GenerateBatchEmbeddings(ctx, []string{"hello"}, "")
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, []float32{0.25, 0.5, 0}, first[0])
	assert.Equal(t, 1, calls)

	second, err := svc.GenerateBatchEmbeddings(ctx, []string{"hello"}, "")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestGenerateBatchEmbeddings_RedisCacheRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	cache, err := NewRedisCache(mr.Addr())
	require.NoError(t, err)

	calls := 0
	srv := embedServer(t, &calls)
	defer srv.Close()

	cfg := Config{BaseURL: srv.URL, EnableRedis: true, RedisAddr: mr.Addr(), CacheTTL: time.Hour}
	svc := NewService(cfg, cache)
	ctx := context.Background()

	_, err = svc.GenerateEmbedding(ctx, "cached text", "")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	// A fresh service with an empty LRU must hit Redis, not the backend.
	svc2 := NewService(cfg, cache)
	vec, err := svc2.GenerateEmbedding(ctx, "cached text", "")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, 0.5, 0}, vec)
	assert.Equal(t, 1, calls)
}

func TestGenerateBatchEmbeddings_PartialCacheMiss(t *testing.T) {
	calls := 0
	srv := embedServer(t, &calls)
	defer srv.Close()

	svc := NewService(Config{BaseURL: srv.URL}, nil)
	ctx := context.Background()

	_, err := svc.GenerateBatchEmbeddings(ctx, []string{"a"}, "")
	require.NoError(t, err)

	out, err := svc.GenerateBatchEmbeddings(ctx, []string{"a", "b"}, "")
	require.NoError(t, err)
	require.Len(t, out, 2)
	// Only "b" went to the backend on the second call.
	assert.Equal(t, 2, calls)
	assert.NotNil(t, out[0])
	assert.NotNil(t, out[1])
}

func TestGenerateBatchEmbeddings_EmptyInput(t *testing.T) {
	svc := NewService(Config{BaseURL: "http://unused:9"}, nil)
	out, err := svc.GenerateBatchEmbeddings(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestMakeKey_DistinguishesModels(t *testing.T) {
	assert.NotEqual(t, MakeKey("model-a", "text"), MakeKey("model-b", "text"))
	assert.Equal(t, MakeKey("m", "text"), MakeKey("m", "text"))
}

func TestLocalLRU_EvictsOldest(t *testing.T) {
	lru := NewLocalLRU(2)
	ctx := context.Background()

	lru.Set(ctx, "k1", []float32{1}, time.Hour)
	lru.Set(ctx, "k2", []float32{2}, time.Hour)
	lru.Set(ctx, "k3", []float32{3}, time.Hour)

	_, ok := lru.Get(ctx, "k1")
	assert.False(t, ok)
	v, ok := lru.Get(ctx, "k3")
	require.True(t, ok)
	assert.Equal(t, []float32{3}, v)
}
