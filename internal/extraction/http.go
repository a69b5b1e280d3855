package extraction

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

var _ Extractor = (*HTTPExtractor)(nil)

// HTTPExtractor posts images to an extraction endpoint as JSON.
//
// Request:  {"image_base64": "...", "mime_type": "image/jpeg"}
// Response: a Receipt document.
type HTTPExtractor struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

type extractRequest struct {
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// NewHTTPExtractor creates an extractor for endpoint. apiKey is sent as a
// bearer token when non-empty.
func NewHTTPExtractor(endpoint, apiKey string, timeout time.Duration) *HTTPExtractor {
	return &HTTPExtractor{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

// Extract sends one image and decodes the guess. It makes a single attempt.
func (e *HTTPExtractor) Extract(ctx context.Context, image []byte, mimeType string) (*Receipt, error) {
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(image)
	}

	body, err := json.Marshal(extractRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(image),
		MimeType:    mimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("encode extraction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build extraction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call extraction service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("extraction service returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var receipt Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return nil, fmt.Errorf("decode extraction response: %w", err)
	}

	slog.Debug("Receipt extracted",
		"items", len(receipt.Items),
		"subtotal", receipt.Subtotal,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &receipt, nil
}

// Disabled is the Extractor used when no endpoint is configured.
type Disabled struct{}

func (Disabled) Extract(context.Context, []byte, string) (*Receipt, error) {
	return nil, ErrNotConfigured
}
