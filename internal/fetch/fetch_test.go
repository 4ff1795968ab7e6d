package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_Success(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("shard-bytes"))
	}))
	defer server.Close()

	result, err := Get(context.Background(), server.Client(), server.URL+"/group1-shard1of1.bin", nil)
	require.NoError(t, err)
	assert.Equal(t, "shard-bytes", string(result.Body))
	assert.Equal(t, "application/octet-stream", result.ContentType)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, DefaultUserAgent, gotUA)
}

func TestGet_InvalidURL(t *testing.T) {
	_, err := Get(context.Background(), nil, "not-a-valid-url", nil)
	require.Error(t, err)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "invalid URL")
}

func TestGet_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := Get(context.Background(), server.Client(), server.URL, nil)
	require.Error(t, err)
	assert.NotNil(t, result) // Result is returned even on error
	assert.Equal(t, http.StatusNotFound, result.StatusCode)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.Contains(t, err.Error(), "404")
}

func TestGet_TooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer server.Close()

	_, err := Get(context.Background(), server.Client(), server.URL, &Options{MaxBytes: 16})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds 16 bytes")
}

func TestGet_CustomHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get("X-Model")))
	}))
	defer server.Close()

	result, err := Get(context.Background(), server.Client(), server.URL, &Options{Headers: map[string]string{"X-Model": "qna"}})
	require.NoError(t, err)
	assert.Equal(t, "qna", string(result.Body))
}

func TestJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			_, _ = w.Write([]byte("{nope"))
			return
		}
		_, _ = w.Write([]byte(`{"format":"extractive-qna"}`))
	}))
	defer server.Close()

	var manifest struct {
		Format string `json:"format"`
	}
	require.NoError(t, JSON(context.Background(), server.Client(), server.URL, nil, &manifest))
	assert.Equal(t, "extractive-qna", manifest.Format)

	err := JSON(context.Background(), server.Client(), server.URL+"/bad", nil, &manifest)
	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "failed to decode JSON")
}
