package media

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sync"
)

// MockStorage keeps uploads in memory and hands out fake URLs; used by -mock runs.
type MockStorage struct {
	BaseURL string

	mu      sync.Mutex
	uploads map[string][]byte
}

func (m *MockStorage) Upload(_ context.Context, _ string, data []byte, transformation string) (Asset, error) {
	sum := sha1.Sum(data)
	id := hex.EncodeToString(sum[:8])

	m.mu.Lock()
	if m.uploads == nil {
		m.uploads = make(map[string][]byte)
	}
	m.uploads[id] = data
	m.mu.Unlock()

	return Asset{PublicID: id, SecureURL: m.URL(id, transformation)}, nil
}

func (m *MockStorage) URL(publicID, transformation string) string {
	base := m.BaseURL
	if base == "" {
		base = "https://media.invalid"
	}
	if transformation == "" {
		return fmt.Sprintf("%s/%s", base, publicID)
	}
	return fmt.Sprintf("%s/%s/%s", base, transformation, publicID)
}

// MockGenerator returns a fixed 1x1 PNG for any prompt.
type MockGenerator struct{}

var onePixelPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func (MockGenerator) TextToImage(_ context.Context, prompt string) ([]byte, error) {
	out := make([]byte, len(onePixelPNG))
	copy(out, onePixelPNG)
	return out, nil
}
