package restapi

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressionMiddleware(t *testing.T) {
	large := strings.Repeat(`{"name": "K0+000-K0+100"}`, 200)
	handler := CompressionMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("small") != "" {
			_, _ = w.Write([]byte(`{"code":0}`))
			return
		}
		_, _ = w.Write([]byte(large))
	}))

	t.Run("compresses large responses when gzip accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/tracks", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "gzip", recorder.Header().Get("Content-Encoding"))

		reader, err := gzip.NewReader(bytes.NewReader(recorder.Body.Bytes()))
		require.NoError(t, err)
		defer reader.Close()
		decompressed, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, large, string(decompressed))
	})

	t.Run("leaves responses alone without gzip", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/tracks", nil))

		assert.Empty(t, recorder.Header().Get("Content-Encoding"))
		assert.Equal(t, large, recorder.Body.String())
	})

	t.Run("leaves small responses alone", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz?small=1", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		assert.Empty(t, recorder.Header().Get("Content-Encoding"))
		assert.Equal(t, `{"code":0}`, recorder.Body.String())
	})
}
