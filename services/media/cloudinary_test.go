package media

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// smallest valid PNG header; enough for content sniffing
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestUploadSendsPresetAndReturnsSecureURL(t *testing.T) {
	var gotPath, gotPreset, gotName string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotPreset = r.FormValue("upload_preset")
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		gotName = hdr.Filename
		gotBody, _ = io.ReadAll(f)
		w.Write([]byte(`{"secure_url":"https://res.example.com/shirt.png","public_id":"shirt"}`))
	}))
	defer srv.Close()

	u := NewUploader(Config{CloudName: "mocca", UploadPreset: "unsigned", BaseURL: srv.URL}, zap.NewNop())
	url, err := u.Upload(context.Background(), "../shirt.png", bytes.NewReader(pngBytes))

	require.NoError(t, err)
	assert.Equal(t, "https://res.example.com/shirt.png", url)
	assert.Equal(t, "/mocca/image/upload", gotPath)
	assert.Equal(t, "unsigned", gotPreset)
	assert.Equal(t, "shirt.png", gotName)
	assert.Equal(t, pngBytes, gotBody)
}

func TestUploadRejectsNonImages(t *testing.T) {
	u := NewUploader(Config{CloudName: "mocca", UploadPreset: "unsigned", BaseURL: "http://unused"}, zap.NewNop())

	_, err := u.Upload(context.Background(), "notes.txt", strings.NewReader("hello"))

	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestUploadRejectsLargeFiles(t *testing.T) {
	u := NewUploader(Config{CloudName: "mocca", UploadPreset: "unsigned", BaseURL: "http://unused"}, zap.NewNop())
	big := append(append([]byte{}, pngBytes...), make([]byte, MaxUploadBytes)...)

	_, err := u.Upload(context.Background(), "big.png", bytes.NewReader(big))

	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestUploadSurfacesHostError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Upload preset not found"}}`))
	}))
	defer srv.Close()

	u := NewUploader(Config{CloudName: "mocca", UploadPreset: "missing", BaseURL: srv.URL}, zap.NewNop())
	_, err := u.Upload(context.Background(), "shirt.png", bytes.NewReader(pngBytes))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Upload preset not found")
}

func TestUploadNotConfigured(t *testing.T) {
	_, err := NewUploader(Config{}, zap.NewNop()).Upload(context.Background(), "a.png", bytes.NewReader(pngBytes))
	assert.ErrorIs(t, err, ErrNotConfigured)
}
