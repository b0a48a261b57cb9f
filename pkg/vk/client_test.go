package vk

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
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

const photosPayload = `{"response":{"count":2,"items":[
 {"id":101,"owner_id":1,"date":1700000000,"likes":{"count":12},
  "sizes":[{"width":75,"height":50,"url":"https://img/s.jpg","type":"s"},
           {"width":1280,"height":853,"url":"https://img/z.jpg","type":"z"}]},
 {"id":102,"owner_id":1,"date":1700086400,"likes":{"count":3},"sizes":[]}
]}}`

// newTestServer routes VK method names to handlers
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := strings.TrimPrefix(r.URL.Path, "/method/")
		h, ok := handlers[method]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server, log logger.Logger) *Client {
	t.Helper()
	if log == nil {
		log = logger.NewNopLogger()
	}
	c := NewClient("secret-token", 2*time.Second, log)
	c.SetBaseURL(srv.URL + "/method")
	c.SetLimiter(nil)
	return c
}

func jsonReply(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}
}

func TestNewClient(t *testing.T) {
	c := NewClient("tok", 30*time.Second, logger.NewTestLogger())

	assert.Equal(t, config.DefaultVKBaseURL, c.baseURL)
	assert.Equal(t, "5.131", c.apiVersion)
	assert.Equal(t, 30*time.Second, c.timeout)
	assert.NotNil(t, c.limiter)
}

func TestNewClientFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.VK.Token = "cfg-token"
	cfg.VK.APIVersion = "5.199"
	cfg.HTTP.UserAgent = "custom-agent"

	c := NewClientFromConfig(cfg, logger.NewNopLogger())

	assert.Equal(t, "cfg-token", c.token)
	assert.Equal(t, "5.199", c.apiVersion)
	assert.Equal(t, "custom-agent", c.headers["User-Agent"])
	assert.Equal(t, 3, c.retry.MaxAttempts)
}

func TestValidateToken(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantType errors.ErrorType
	}{
		{
			name:    "valid token",
			handler: jsonReply(`{"response":{"first_name":"Pavel"}}`),
		},
		{
			name:     "rejected token",
			handler:  jsonReply(`{"error":{"error_code":5,"error_msg":"User authorization failed"}}`),
			wantType: errors.ErrorTypeAuth,
		},
		{
			name:     "other api fault",
			handler:  jsonReply(`{"error":{"error_code":10,"error_msg":"Internal server error"}}`),
			wantType: errors.ErrorTypeAPI,
		},
		{
			name: "http 500",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantType: errors.ErrorTypeAPI,
		},
		{
			name:     "malformed body",
			handler:  jsonReply(`<html>`),
			wantType: errors.ErrorTypeAPI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, map[string]http.HandlerFunc{MethodProfileInfo: tt.handler})
			err := newTestClient(t, srv, nil).ValidateToken(context.Background())

			if tt.wantType == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantType, errors.TypeOf(err))
		})
	}
}

func TestValidateTokenTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c := newTestClient(t, srv, nil)
	srv.Close()

	err := c.ValidateToken(context.Background())
	assert.True(t, errors.IsType(err, errors.ErrorTypeTransport))
}

func TestValidateTokenTimeout(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		MethodProfileInfo: func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		},
	})
	c := newTestClient(t, srv, nil)
	c.timeout = 50 * time.Millisecond

	err := c.ValidateToken(context.Background())
	assert.True(t, errors.IsType(err, errors.ErrorTypeTransport))
}

func TestFetchProfilePhotos(t *testing.T) {
	var gotQuery map[string]string
	srv := newTestServer(t, map[string]http.HandlerFunc{
		MethodPhotosGet: func(w http.ResponseWriter, r *http.Request) {
			gotQuery = map[string]string{}
			for k := range r.URL.Query() {
				gotQuery[k] = r.URL.Query().Get(k)
			}
			jsonReply(photosPayload)(w, r)
		},
	})

	photos, err := newTestClient(t, srv, nil).FetchProfilePhotos(context.Background(), "1", 5)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"owner_id":     "1",
		"album_id":     "profile",
		"extended":     "1",
		"photo_sizes":  "1",
		"count":        "5",
		"access_token": "secret-token",
		"v":            "5.131",
	}, gotQuery)

	require.Len(t, photos, 2)
	assert.Equal(t, int64(101), photos[0].ID)
	assert.Equal(t, 12, photos[0].Likes)
	assert.Equal(t, time.Unix(1700000000, 0), photos[0].Date)
	require.Len(t, photos[0].Sizes, 2)
	assert.Equal(t, "https://img/z.jpg", photos[0].Sizes[1].URL)
	assert.Equal(t, "z", photos[0].Sizes[1].Type)
	assert.Empty(t, photos[1].Sizes)
}

func TestFetchProfilePhotosEmpty(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		MethodPhotosGet: jsonReply(`{"response":{"count":0,"items":[]}}`),
	})

	photos, err := newTestClient(t, srv, nil).FetchProfilePhotos(context.Background(), "1", 5)
	require.NoError(t, err)
	assert.Empty(t, photos)
}

func TestFetchProfilePhotosPrivateProfile(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		MethodPhotosGet: jsonReply(`{"error":{"error_code":30,"error_msg":"This profile is private"}}`),
	})
	tl := logger.NewTestLogger()

	_, err := newTestClient(t, srv, tl).FetchProfilePhotos(context.Background(), "1", 5)

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAPI))
	assert.Contains(t, err.Error(), "private")
	assert.True(t, tl.HasMessage("failed to fetch profile photos"))
}

func TestFetchProfilePhotosInvalidOwner(t *testing.T) {
	c := NewClient("tok", time.Second, logger.NewNopLogger())
	_, err := c.FetchProfilePhotos(context.Background(), "durov", 5)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidInput))
}

func TestTransportErrorsAreRetried(t *testing.T) {
	var calls int32
	srv := newTestServer(t, map[string]http.HandlerFunc{
		MethodPhotosGet: func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				// Drop the connection to simulate a network fault
				hj, ok := w.(http.Hijacker)
				require.True(t, ok)
				conn, _, err := hj.Hijack()
				require.NoError(t, err)
				conn.Close()
				return
			}
			jsonReply(photosPayload)(w, r)
		},
	})
	c := newTestClient(t, srv, nil)
	c.SetRetry(&retry.Config{MaxAttempts: 3, Backoff: &retry.ConstantBackoff{Delay: time.Millisecond}})

	photos, err := c.FetchProfilePhotos(context.Background(), "1", 5)
	require.NoError(t, err)
	assert.Len(t, photos, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestAPIErrorsAreNotRetried(t *testing.T) {
	var calls int32
	srv := newTestServer(t, map[string]http.HandlerFunc{
		MethodProfileInfo: func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			jsonReply(`{"error":{"error_code":5,"error_msg":"no"}}`)(w, r)
		},
	})
	c := newTestClient(t, srv, nil)
	c.SetRetry(&retry.Config{MaxAttempts: 3, Backoff: &retry.ConstantBackoff{Delay: time.Millisecond}})

	require.Error(t, c.ValidateToken(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTokenIsNotLogged(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		MethodProfileInfo: jsonReply(`{"response":{}}`),
	})
	tl := logger.NewTestLogger()

	require.NoError(t, newTestClient(t, srv, tl).ValidateToken(context.Background()))

	for _, msg := range tl.GetMessages() {
		for _, v := range msg.Fields {
			assert.NotContains(t, fmt.Sprint(v), "secret-token")
		}
	}
	assert.True(t, tl.HasMessage("HTTP request completed"))
}

func TestGatewayErrorsAreRetried(t *testing.T) {
	var calls int32
	srv := newTestServer(t, map[string]http.HandlerFunc{
		MethodProfileInfo: func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			jsonReply(`{"response":{"id":1}}`)(w, r)
		},
	})
	c := newTestClient(t, srv, nil)
	c.SetRetry(&retry.Config{MaxAttempts: 3, Backoff: &retry.ConstantBackoff{Delay: time.Millisecond}})

	require.NoError(t, c.ValidateToken(context.Background()))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestServerErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := newTestServer(t, map[string]http.HandlerFunc{
		MethodProfileInfo: func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusInternalServerError)
		},
	})
	c := newTestClient(t, srv, nil)
	c.SetRetry(&retry.Config{MaxAttempts: 3, Backoff: &retry.ConstantBackoff{Delay: time.Millisecond}})

	err := c.ValidateToken(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAPI))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
