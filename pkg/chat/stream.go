package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/smarttype/smarttender/pkg/logger"
)

// StreamEvent is one decoded event from the query service
type StreamEvent struct {
	Payload   string    // Opaque event text, fed to the accumulator
	Timestamp time.Time // When the event was decoded
	Err       error     // Non-nil when the stream failed mid-read
}

// QueryRequest is the body posted to the query endpoint
type QueryRequest struct {
	Query string `json:"query"`
}

// StreamQuerier is implemented by clients that can stream bot responses
type StreamQuerier interface {
	StreamQuery(ctx context.Context, query string) (<-chan StreamEvent, error)
}

// QueryClient talks to the backend query service
type QueryClient struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewQueryClient creates a client for the query service. The HTTP client
// carries no timeout of its own; callers bound each stream with a context
// deadline instead, so long streams are not cut off mid-read.
func NewQueryClient(baseURL string) *QueryClient {
	return &QueryClient{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		log:        logger.WithComponent("query_client"),
	}
}

// StreamQuery posts the query and returns a channel of decoded events.
// The channel is closed when the stream ends for any reason; a mid-stream
// failure is delivered as a final event with Err set.
func (c *QueryClient) StreamQuery(ctx context.Context, query string) (<-chan StreamEvent, error) {
	reqBody, err := json.Marshal(QueryRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/query/", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		errorBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if readErr != nil {
			return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(errorBody))
	}

	events := make(chan StreamEvent, 100)
	go c.readStream(ctx, resp.Body, events)

	return events, nil
}

// readStream decodes the response body until it ends or the context is
// cancelled. Decoding is strictly sequential, so events arrive in order.
func (c *QueryClient) readStream(ctx context.Context, body io.ReadCloser, events chan<- StreamEvent) {
	defer close(events)
	defer body.Close()

	decoder := NewEventDecoder(body)

	for {
		select {
		case <-ctx.Done():
			events <- StreamEvent{Err: ctx.Err(), Timestamp: time.Now()}
			return
		default:
		}

		payload, err := decoder.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			// Context cancellation surfaces as a read error on the
			// closed body; report it as the context error.
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			c.log.Debug("Stream read failed", "error", err)
			events <- StreamEvent{Err: fmt.Errorf("stream reading error: %w", err), Timestamp: time.Now()}
			return
		}

		select {
		case events <- StreamEvent{Payload: payload, Timestamp: time.Now()}:
		case <-ctx.Done():
			events <- StreamEvent{Err: ctx.Err(), Timestamp: time.Now()}
			return
		}
	}
}
