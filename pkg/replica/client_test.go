package replica

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer 启动一个模拟副本，返回其 host:port
func newTestServer(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestHTTPClient_Info(t *testing.T) {
	t.Parallel()

	address := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/info", r.URL.Path)
		_ = json.NewEncoder(w).Encode(&Info{
			Size:     1 << 30,
			HeadSize: 4096,
			Disks:    []Disk{{Name: "snap-a", Size: 8192}},
			Chain:    []string{"snap-a"},
		})
	})

	client := NewHTTPClient(5 * time.Second)
	info, err := client.Info(context.Background(), address)
	require.NoError(t, err)
	assert.Equal(t, int64(1<<30), info.Size)
	assert.Equal(t, int64(4096), info.HeadSize)

	disk, ok := info.Disk("snap-a")
	assert.True(t, ok)
	assert.Equal(t, int64(8192), disk.Size)

	_, ok = info.Disk("missing")
	assert.False(t, ok)
}

func TestHTTPClient_Resize(t *testing.T) {
	t.Parallel()

	var got resizeRequest
	address := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/resize", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	})

	client := NewHTTPClient(5 * time.Second)
	err := client.Resize(context.Background(), address, 2<<30)
	require.NoError(t, err)
	assert.Equal(t, int64(2<<30), got.Size)
}

func TestHTTPClient_Snapshot(t *testing.T) {
	t.Parallel()

	var got snapshotRequest
	address := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/snapshot", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(&snapshotResponse{Size: 1024})
	})

	client := NewHTTPClient(5 * time.Second)
	size, err := client.Snapshot(context.Background(), address, "snap-1", map[string]string{"app": "db"})
	require.NoError(t, err)
	assert.Equal(t, int64(1024), size)
	assert.Equal(t, "snap-1", got.Name)
	assert.Equal(t, "db", got.Labels["app"])
}

func TestHTTPClient_PurgeSnapshot(t *testing.T) {
	t.Parallel()

	var got nameRequest
	address := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/snapshot-purge", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	client := NewHTTPClient(5 * time.Second)
	require.NoError(t, client.PurgeSnapshot(context.Background(), address, "snap-1"))
	assert.Equal(t, "snap-1", got.Name)
}

func TestHTTPClient_ErrorStatus(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "with error body", body: `{"error":"no space left"}`, wantMsg: "no space left"},
		{name: "without error body", body: ``, wantMsg: "status 500"},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			address := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(tc.body))
			})

			client := NewHTTPClient(5 * time.Second)
			err := client.Revert(context.Background(), address, "snap-1")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantMsg)
			assert.Contains(t, err.Error(), "revert")
		})
	}
}

func TestHTTPClient_Unreachable(t *testing.T) {
	t.Parallel()

	address := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	// 关闭后的地址不可达
	srv := httptest.NewServer(http.NotFoundHandler())
	dead := strings.TrimPrefix(srv.URL, "http://")
	srv.Close()

	client := NewHTTPClient(time.Second)
	_, err := client.Stats(context.Background(), dead)
	assert.Error(t, err)

	_, err = client.Stats(context.Background(), address)
	assert.NoError(t, err)
}
