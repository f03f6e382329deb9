package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// ExtractorClient delegates text extraction to an external service that
// understands binary office formats. The file is posted as the request body
// and the service answers with the extracted pages.
type ExtractorClient struct {
	baseURL string
	client  *http.Client
}

type extractResponse struct {
	Pages []string `json:"pages"`
}

// NewExtractorClient creates a client for the extraction service at baseURL.
// If client is nil, a default client with a 2 minute timeout is used; large
// documents take a while to convert.
func NewExtractorClient(baseURL string, client *http.Client) *ExtractorClient {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &ExtractorClient{baseURL: baseURL, client: client}
}

// Load posts the file at path to the extraction service and returns the
// pages it extracted.
func (c *ExtractorClient) Load(ctx context.Context, path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	url := fmt.Sprintf("%s/extract?filename=%s", c.baseURL, filepath.Base(path))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: extraction service returned status %d: %s",
			ErrExtractionFailed, resp.StatusCode, string(body))
	}

	var parsed extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding extraction response: %w", ErrExtractionFailed, err)
	}
	if len(parsed.Pages) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, path)
	}

	return parsed.Pages, nil
}

// NewDefaultRegistry builds a registry covering the supported extensions.
// Plain text and markdown load in process; web sources go through the URL
// loader; office formats are delegated to the extraction service when
// extractorURL is set and are left unregistered otherwise.
func NewDefaultRegistry(extractorURL string) *Registry {
	r := NewRegistry()

	text := NewTextLoader()
	r.Register("txt", text)
	r.Register("md", text)
	r.Register("urls", NewURLLoader(nil))

	if extractorURL != "" {
		ext := NewExtractorClient(extractorURL, nil)
		for _, e := range []string{"pdf", "doc", "docx", "xls", "xlsx"} {
			r.Register(e, ext)
		}
	}

	return r
}
