package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"scrolla/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/webp"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 7 {
		img.Set(x, x%h, color.RGBA{R: 200, G: 40, B: 90, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessor_Process(t *testing.T) {
	p := NewProcessor(5)

	out, err := p.Process(pngBytes(t, 64, 32), "image/png")
	require.NoError(t, err)
	cfg, err := webp.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 32, cfg.Height)
}

func TestProcessor_ResizesLargeImages(t *testing.T) {
	p := NewProcessor(20)

	out, err := p.Process(pngBytes(t, 4096, 1024), "")
	require.NoError(t, err)
	cfg, err := webp.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, MaxDimension, cfg.Width)
	assert.Equal(t, 512, cfg.Height)
}

func TestProcessor_Rejects(t *testing.T) {
	p := NewProcessor(1)

	tests := []struct {
		name        string
		content     []byte
		contentType string
	}{
		{"empty", nil, "image/png"},
		{"text", []byte("just some text, definitely not an image"), "text/plain"},
		{"too large", bytes.Repeat([]byte{0}, 2*1024*1024), "image/png"},
		{"non image content type", pngBytes(t, 8, 8), "application/pdf"},
		{"truncated png", pngBytes(t, 8, 8)[:40], "image/png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Process(tt.content, tt.contentType)
			require.Error(t, err)
			assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
		})
	}
}

func TestLocalStorage_Put(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir, "/uploads/")

	url, err := s.Put(context.Background(), "posts/1/abc.webp", []byte("data"), OutputContentType)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/posts/1/abc.webp", url)

	got, err := os.ReadFile(filepath.Join(dir, "posts", "1", "abc.webp"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))
}

func TestS3Storage_Put(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		ctype  string
		body   []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		method, path, ctype = r.Method, r.URL.Path, r.Header.Get("Content-Type")
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := NewS3Storage(context.Background(), S3Config{
		Bucket:    "media",
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "test",
		SecretKey: "test",
	})
	require.NoError(t, err)

	url, err := s.Put(context.Background(), "posts/1/abc.webp", []byte("webp-bytes"), OutputContentType)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/media/posts/1/abc.webp", url)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/media/posts/1/abc.webp", path)
	assert.Equal(t, OutputContentType, ctype)
	assert.Contains(t, string(body), "webp-bytes")
}

type memStorage struct {
	mu   sync.Mutex
	keys []string
	fail bool
}

func (m *memStorage) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	if m.fail {
		return "", errors.New("bucket unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, key)
	return "https://cdn.example.com/" + key, nil
}

func TestUploader_UploadMany(t *testing.T) {
	store := &memStorage{}
	u := NewUploader(NewProcessor(5), store)
	ctx := context.Background()

	files := []File{
		{Name: "a.png", ContentType: "image/png", Content: pngBytes(t, 10, 10)},
		{Name: "b.png", ContentType: "image/png", Content: pngBytes(t, 20, 10)},
		{Name: "c.png", ContentType: "image/png", Content: pngBytes(t, 30, 10)},
	}
	urls, err := u.UploadMany(ctx, 7, files)
	require.NoError(t, err)
	require.Len(t, urls, 3)
	for _, url := range urls {
		assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/posts/7/"), url)
		assert.True(t, strings.HasSuffix(url, ".webp"), url)
	}
	assert.Len(t, store.keys, 3)

	_, err = u.UploadMany(ctx, 7, make([]File, MaxFilesPerRequest+1))
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))

	_, err = u.UploadMany(ctx, 7, nil)
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))

	files[1].Content = []byte("not an image at all")
	_, err = u.UploadMany(ctx, 7, files)
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
}

func TestUploader_StorageFailure(t *testing.T) {
	u := NewUploader(NewProcessor(5), &memStorage{fail: true})

	_, err := u.Upload(context.Background(), 1, File{ContentType: "image/png", Content: pngBytes(t, 4, 4)})
	assert.Equal(t, models.CodeInternal, models.ErrorCode(err))
}
