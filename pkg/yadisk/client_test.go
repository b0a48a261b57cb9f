package yadisk

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vkbackup/pkg/config"
	"vkbackup/pkg/errors"
	"vkbackup/pkg/logger"
	"vkbackup/pkg/retry"
)

// fakeDisk is an in-memory stand-in for the Yandex.Disk resources API
type fakeDisk struct {
	mu        sync.Mutex
	token     string
	folders   map[string]bool
	uploads   map[string]string
	puts      int
	failProbe bool
	// conflictOnProbe makes the folder appear only at creation time,
	// as if another client created it concurrently
	conflictOnProbe bool
}

func newFakeDisk(t *testing.T) (*fakeDisk, *httptest.Server) {
	t.Helper()
	d := &fakeDisk{token: "disk-token", folders: map[string]bool{}, uploads: map[string]string{}}
	srv := httptest.NewServer(d)
	t.Cleanup(srv.Close)
	return d, srv
}

func (d *fakeDisk) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	defer d.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if r.Header.Get("Authorization") != "OAuth "+d.token {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"Не авторизован.","description":"Unauthorized","error":"UnauthorizedError"}`)
		return
	}

	path := r.URL.Query().Get("path")
	switch {
	case r.URL.Path == "/resources" && r.Method == http.MethodGet:
		if d.failProbe {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if path == "/" || d.folders[path] {
			w.WriteHeader(http.StatusOK)
			fmt.Fprintf(w, `{"path":"disk:%s","type":"dir"}`, path)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"DiskNotFoundError","description":"Resource not found."}`)

	case r.URL.Path == "/resources" && r.Method == http.MethodPut:
		d.puts++
		if d.folders[path] || d.conflictOnProbe {
			d.folders[path] = true
			w.WriteHeader(http.StatusConflict)
			fmt.Fprint(w, `{"error":"DiskPathPointsToExistentDirectoryError"}`)
			return
		}
		d.folders[path] = true
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"href":"https://cloud-api.yandex.net/v1/disk/resources?path=disk%%3A%s","method":"GET"}`, path)

	case r.URL.Path == "/resources/upload" && r.Method == http.MethodPost:
		src := r.URL.Query().Get("url")
		if src == "https://img/forbidden.jpg" {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"error":"ForbiddenError","description":"Source is not accessible"}`)
			return
		}
		d.uploads[path] = src
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprint(w, `{"href":"https://cloud-api.yandex.net/v1/disk/operations/abc","method":"GET","templated":false}`)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (d *fakeDisk) putCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.puts
}

func (d *fakeDisk) hasFolder(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.folders[path]
}

func (d *fakeDisk) uploadedFrom(path string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.uploads[path]
}

func newTestClient(t *testing.T, srv *httptest.Server, token string) *Client {
	t.Helper()
	c := NewClient(token, 2*time.Second, 2*time.Second, logger.NewNopLogger())
	c.SetBaseURL(srv.URL)
	c.SetLimiter(nil)
	return c
}

func TestNewClientFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Yandex.Token = "abc"

	c := NewClientFromConfig(cfg, logger.NewNopLogger())

	assert.Equal(t, "OAuth abc", c.headers["Authorization"])
	assert.Equal(t, "https://cloud-api.yandex.net/v1/disk", c.baseURL)
	assert.Equal(t, 30*time.Second, c.controlTimeout)
	assert.Equal(t, 60*time.Second, c.uploadTimeout)
}

func TestResourcePath(t *testing.T) {
	assert.Equal(t, "/", ResourcePath())
	assert.Equal(t, "/VK", ResourcePath("VK"))
	assert.Equal(t, "/VK/10.jpg", ResourcePath("VK", "10.jpg"))
	assert.Equal(t, "/VK/10.jpg", ResourcePath("/VK/", "/10.jpg"))
}

func TestValidateToken(t *testing.T) {
	_, srv := newFakeDisk(t)

	assert.NoError(t, newTestClient(t, srv, "disk-token").ValidateToken(context.Background()))

	err := newTestClient(t, srv, "wrong").ValidateToken(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAuth))
	assert.Contains(t, err.Error(), "Unauthorized")
}

func TestValidateTokenTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c := newTestClient(t, srv, "disk-token")
	srv.Close()

	err := c.ValidateToken(context.Background())
	assert.True(t, errors.IsType(err, errors.ErrorTypeTransport))
}

func TestFolderExists(t *testing.T) {
	disk, srv := newFakeDisk(t)
	disk.folders["/present"] = true
	c := newTestClient(t, srv, "disk-token")

	ok, err := c.FolderExists(context.Background(), "present")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.FolderExists(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnsureFolderIsIdempotent(t *testing.T) {
	disk, srv := newFakeDisk(t)
	c := newTestClient(t, srv, "disk-token")

	status, err := c.EnsureFolder(context.Background(), "VK_Photos_1_2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, FolderCreated, status)

	status, err = c.EnsureFolder(context.Background(), "VK_Photos_1_2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, FolderExisted, status)

	assert.Equal(t, 1, disk.putCount(), "second call must not try to create again")
}

func TestEnsureFolderConflictIsSuccess(t *testing.T) {
	disk, srv := newFakeDisk(t)
	disk.conflictOnProbe = true

	status, err := newTestClient(t, srv, "disk-token").EnsureFolder(context.Background(), "raced")

	require.NoError(t, err)
	assert.Equal(t, FolderExisted, status)
}

func TestEnsureFolderProbeFailureFallsThroughToCreate(t *testing.T) {
	disk, srv := newFakeDisk(t)
	disk.failProbe = true

	status, err := newTestClient(t, srv, "disk-token").EnsureFolder(context.Background(), "new")

	require.NoError(t, err)
	assert.Equal(t, FolderCreated, status)
	assert.True(t, disk.hasFolder("/new"))
}

func TestEnsureFolderUnauthorized(t *testing.T) {
	_, srv := newFakeDisk(t)

	_, err := newTestClient(t, srv, "wrong").EnsureFolder(context.Background(), "x")

	assert.True(t, errors.IsType(err, errors.ErrorTypeAuth))
}

func TestUploadFromURL(t *testing.T) {
	disk, srv := newFakeDisk(t)
	c := newTestClient(t, srv, "disk-token")

	receipt, err := c.UploadFromURL(context.Background(), "VK/10.jpg", "https://img/z.jpg?size=1280")
	require.NoError(t, err)

	assert.Equal(t, "/VK/10.jpg", receipt.Path)
	assert.Equal(t, "https://cloud-api.yandex.net/v1/disk/operations/abc", receipt.OperationHref)
	assert.Equal(t, "https://img/z.jpg?size=1280", disk.uploadedFrom("/VK/10.jpg"))
}

func TestUploadFromURLRejected(t *testing.T) {
	_, srv := newFakeDisk(t)
	c := newTestClient(t, srv, "disk-token")

	_, err := c.UploadFromURL(context.Background(), "/VK/1.jpg", "https://img/forbidden.jpg")

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAPI))
	assert.Contains(t, err.Error(), "Source is not accessible")
}

func TestUploadOnlyAcceptsAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, "disk-token").UploadFromURL(context.Background(), "/a.jpg", "https://img/a.jpg")

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAPI))
}

func TestUploadTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()
	c := newTestClient(t, srv, "disk-token")
	c.uploadTimeout = 50 * time.Millisecond

	_, err := c.UploadFromURL(context.Background(), "/a.jpg", "https://img/a.jpg")

	assert.True(t, errors.IsType(err, errors.ErrorTypeTransport))
}

func TestFolderStatusString(t *testing.T) {
	assert.Equal(t, "created", FolderCreated.String())
	assert.Equal(t, "existed", FolderExisted.String())
}

func TestStatusErrorTypes(t *testing.T) {
	tests := []struct {
		status int
		want   errors.ErrorType
	}{
		{http.StatusUnauthorized, errors.ErrorTypeAuth},
		{http.StatusForbidden, errors.ErrorTypeAPI},
		{http.StatusInternalServerError, errors.ErrorTypeAPI},
		{http.StatusBadGateway, errors.ErrorTypeTransport},
		{http.StatusServiceUnavailable, errors.ErrorTypeTransport},
		{http.StatusGatewayTimeout, errors.ErrorTypeTransport},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := statusError("probe", tt.status, nil)
			assert.Equal(t, tt.want, errors.TypeOf(err))
		})
	}
}

func TestValidateTokenRetriesGatewayErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "disk-token")
	c.SetRetry(&retry.Config{MaxAttempts: 3, Backoff: &retry.ConstantBackoff{Delay: time.Millisecond}})

	require.NoError(t, c.ValidateToken(context.Background()))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
