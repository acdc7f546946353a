package download

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windowsadmins/setup-sqlserver/pkg/retry"
)

func noWait() DownloaderOption {
	return WithRetryConfig(retry.RetryConfig{
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		Sleep:           func(context.Context, time.Duration) error { return nil },
	})
}

func TestDownloadToolUsesURLExtension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("setup-bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := New(dir, WithHTTPClient(srv.Client()), noWait())
	got, err := d.DownloadTool(context.Background(), srv.URL+"/SQLServer2022-DEV-x64-ENU.exe", "")
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(got))
	assert.Equal(t, ".exe", filepath.Ext(got))
	data, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, "setup-bytes", string(data))
}

func TestDownloadToolExplicitExtension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("msi"))
	}))
	defer srv.Close()

	d := New(t.TempDir(), WithHTTPClient(srv.Client()), noWait())
	got, err := d.DownloadTool(context.Background(), srv.URL+"/fwlink/?linkid=2242886", ".msi")
	require.NoError(t, err)
	assert.Equal(t, ".msi", filepath.Ext(got))
}

func TestDownloadToolRetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	d := New(t.TempDir(), WithHTTPClient(srv.Client()), noWait())
	_, err := d.DownloadTool(context.Background(), srv.URL+"/setup.exe", "")
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestDownloadToolNotFoundIsPermanent(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := New(t.TempDir(), WithHTTPClient(srv.Client()), noWait())
	_, err := d.DownloadTool(context.Background(), srv.URL+"/missing.exe", "")

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestDownloadToolEmptyURL(t *testing.T) {
	_, err := New(t.TempDir()).DownloadTool(context.Background(), "", "")
	assert.Error(t, err)
}

func TestFetchPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone" {
			w.WriteHeader(http.StatusGone)
			return
		}
		_, _ = w.Write([]byte("<html>landing</html>"))
	}))
	defer srv.Close()

	d := New(t.TempDir(), WithHTTPClient(srv.Client()))
	body, err := d.FetchPage(context.Background(), srv.URL+"/details.aspx?id=105013")
	require.NoError(t, err)
	assert.Equal(t, "<html>landing</html>", body)

	_, err = d.FetchPage(context.Background(), srv.URL+"/gone")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusGone, statusErr.StatusCode)
}

func TestRetryableStatus(t *testing.T) {
	assert.True(t, retryableStatus(500))
	assert.True(t, retryableStatus(429))
	assert.True(t, retryableStatus(408))
	assert.False(t, retryableStatus(404))
	assert.False(t, retryableStatus(403))
}

func TestURLBase(t *testing.T) {
	assert.Equal(t, "SQLServer2022-DEV-x64-ENU.exe", urlBase("https://download.microsoft.com/download/c/SQLServer2022-DEV-x64-ENU.exe?x=1"))
	assert.Equal(t, "linkid=2266337", urlBase("https://go.microsoft.com/fwlink/linkid=2266337"))
}

func TestNewDefaults(t *testing.T) {
	d := New("")
	client, ok := d.httpClient.(*http.Client)
	require.True(t, ok)
	assert.Equal(t, Timeout, client.Timeout)
	assert.Equal(t, os.TempDir(), d.tempDir)
	assert.Equal(t, 3, d.retryConfig.MaxRetries)
}
