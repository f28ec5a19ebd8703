package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"
)

const clipdropTextToImageURL = "https://clipdrop-api.co/text-to-image/v1"

// maxImageBytes caps how much of a generated image is read into memory.
const maxImageBytes = 20 << 20

// ImageGenerator turns a prompt into raw image bytes.
type ImageGenerator interface {
	TextToImage(ctx context.Context, prompt string) ([]byte, error)
}

// ClipDropConfig holds the API key and an optional endpoint override.
type ClipDropConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url,omitempty"`
}

// ClipDrop implements ImageGenerator against ClipDrop's text-to-image API.
type ClipDrop struct {
	cfg    ClipDropConfig
	client *http.Client
	logger *slog.Logger
}

func NewClipDrop(cfg ClipDropConfig, client *http.Client, logger *slog.Logger) (*ClipDrop, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("clipdrop api key missing; provide clipdrop.api_key or CLIPDROP_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = clipdropTextToImageURL
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ClipDrop{cfg: cfg, client: client, logger: logger}, nil
}

type clipdropErr struct {
	Error string `json:"error"`
}

func (c *ClipDrop) TextToImage(ctx context.Context, prompt string) ([]byte, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("prompt", prompt); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("x-api-key", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		var e clipdropErr
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return nil, errors.New(e.Error)
		}
		return nil, fmt.Errorf("request failed with status code %d", resp.StatusCode)
	}
	if len(data) == 0 {
		return nil, errors.New("empty image")
	}
	c.logger.Debug("clipdrop image generated", "bytes", len(data))
	return data, nil
}
