package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/smarttype/smarttender/pkg/logger"
)

// Client lists processed file names from the document source. This is a
// sibling action to the chat flow; failures are reported, never fatal.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a drive client for the given base URL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        logger.WithComponent("drive_client"),
	}
}

// FetchProcessedFiles returns the names of files the document source has
// processed into the retrieval index.
func (c *Client) FetchProcessedFiles(ctx context.Context) ([]string, error) {
	url := fmt.Sprintf("%s/fetch-drive-files/", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	var payload struct {
		ProcessedFiles []string `json:"processed_files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.log.Debug("Fetched processed files", "count", len(payload.ProcessedFiles))
	return payload.ProcessedFiles, nil
}
