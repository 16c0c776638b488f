package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eventboard/backend/pkg/storage"
)

type upload struct {
	field, filename string
	content         []byte
}

func createMultipartRequest(t *testing.T, files ...upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func setupUploadTestRouter(store storage.ImageStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(store, zap.NewNop())
	router := gin.New()
	router.POST("/uploads", h.Upload)
	return router
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			n++
		}
		return err
	})
	require.NoError(t, err)
	return n
}

func TestUpload_Disk(t *testing.T) {
	dir := t.TempDir()
	disk, err := storage.NewDisk(dir, "/uploads/files/")
	require.NoError(t, err)
	router := setupUploadTestRouter(disk)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, createMultipartRequest(t,
		upload{FormField, "cover.png", []byte("png-bytes")},
		upload{FormField, "Stage.JPG", []byte("jpg-bytes")},
	))

	require.Equal(t, http.StatusCreated, w.Code)
	var body struct {
		Message string `json:"message"`
		Images  []struct {
			Path string `json:"path"`
		} `json:"images"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Message)
	require.Len(t, body.Images, 2)
	assert.True(t, strings.HasPrefix(body.Images[0].Path, "/uploads/files/images/"))
	assert.True(t, strings.HasSuffix(body.Images[0].Path, ".png"))
	assert.True(t, strings.HasSuffix(body.Images[1].Path, ".jpg"))

	key := strings.TrimPrefix(body.Images[0].Path, "/uploads/files/")
	got, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(got))
}

func TestUpload_Rejected(t *testing.T) {
	t.Run("Unsupported type stores nothing", func(t *testing.T) {
		dir := t.TempDir()
		disk, err := storage.NewDisk(dir, "/uploads/files")
		require.NoError(t, err)
		router := setupUploadTestRouter(disk)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, createMultipartRequest(t,
			upload{FormField, "ok.png", []byte("png")},
			upload{FormField, "notes.txt", []byte("text")},
		))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "notes.txt")
		assert.Zero(t, countFiles(t, dir))
	})

	t.Run("No files", func(t *testing.T) {
		router := setupUploadTestRouter(nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, createMultipartRequest(t, upload{"other", "a.png", []byte("x")}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Not multipart", func(t *testing.T) {
		router := setupUploadTestRouter(nil)
		req := httptest.NewRequest(http.MethodPost, "/uploads", strings.NewReader(`{"images":[]}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// flakyStore fails every Save after the first failAfter.
type flakyStore struct {
	mu        sync.Mutex
	failAfter int
	saved     []string
	deleted   []string
}

func (f *flakyStore) Save(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saved) >= f.failAfter {
		return "", errors.New("bucket unavailable")
	}
	_, _ = io.Copy(io.Discard, body)
	f.saved = append(f.saved, key)
	return "https://cdn.example.com/" + key, nil
}

func (f *flakyStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

func TestUpload_RollsBackOnFailure(t *testing.T) {
	store := &flakyStore{failAfter: 1}
	router := setupUploadTestRouter(store)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, createMultipartRequest(t,
		upload{FormField, "a.png", []byte("a")},
		upload{FormField, "b.png", []byte("b")},
	))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, store.saved, store.deleted)
	assert.Len(t, store.deleted, 1)
}
