// Package media uploads product and profile images to the image host.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.cloudinary.com/v1_1"
	MaxUploadBytes = 5 << 20
)

var (
	ErrNotConfigured   = errors.New("image upload is not configured")
	ErrTooLarge        = errors.New("image exceeds the upload limit")
	ErrUnsupportedType = errors.New("only image uploads are accepted")
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// Allowed reports whether contentType may be uploaded.
func Allowed(contentType string) bool {
	return allowedTypes[strings.ToLower(strings.TrimSpace(contentType))]
}

type Config struct {
	CloudName    string
	UploadPreset string
	BaseURL      string
	Timeout      time.Duration
}

type Uploader struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

func NewUploader(cfg Config, logger *zap.Logger) *Uploader {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Uploader{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Upload sends the image as an unsigned upload and returns its HTTPS URL.
func (u *Uploader) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	if u.cfg.CloudName == "" || u.cfg.UploadPreset == "" {
		return "", ErrNotConfigured
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return "", ErrTooLarge
	}
	if !Allowed(http.DetectContentType(data)) {
		return "", ErrUnsupportedType
	}

	if filename = path.Base(filename); filename == "." || filename == "/" {
		filename = uuid.New().String()
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := mw.WriteField("upload_preset", u.cfg.UploadPreset); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/%s/image/upload", strings.TrimRight(u.cfg.BaseURL, "/"), u.cfg.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	start := time.Now()
	resp, err := u.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("image upload failed: %w", err)
	}
	defer resp.Body.Close()

	var out uploadResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("image upload failed: status %d: %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || out.SecureURL == "" {
		msg := "no url returned"
		if out.Error != nil {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("image upload failed: status %d: %s", resp.StatusCode, msg)
	}

	u.logger.Info("image uploaded",
		zap.String("public_id", out.PublicID),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))
	return out.SecureURL, nil
}
