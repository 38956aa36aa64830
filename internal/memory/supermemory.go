// In file: internal/memory/supermemory.go
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	searchPath    = "/v3/search"
	documentsPath = "/v3/documents"

	defaultSearchLimit = 5
	defaultTimeout     = 30 * time.Second
	maxRetries         = 2
	initialRetryDelay  = 250 * time.Millisecond
)

// ErrEmptyContent is returned by Add when there is nothing to store.
var ErrEmptyContent = errors.New("memory content cannot be empty")

type searchRequest struct {
	Query        string `json:"q"`
	Limit        int    `json:"limit"`
	ContainerTag string `json:"containerTag,omitempty"`
}

type searchResponse struct {
	Results []json.RawMessage `json:"results"`
}

type documentRequest struct {
	Content      string         `json:"content"`
	Metadata     map[string]any `json:"metadata"`
	ContainerTag string         `json:"containerTag,omitempty"`
}

// Supermemory is a client for the Supermemory v3 API.
type Supermemory struct {
	baseURL    string
	apiKey     string
	limit      int
	httpClient *http.Client
	retryDelay time.Duration
}

// NewSupermemory creates a client. Non-positive limit and timeout use defaults.
func NewSupermemory(baseURL, apiKey string, limit int, timeout time.Duration) (*Supermemory, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("SUPERMEMORY_API_URL must be set for the supermemory provider")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Supermemory{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		limit:      limit,
		httpClient: &http.Client{Timeout: timeout},
		retryDelay: initialRetryDelay,
	}, nil
}

// Search returns memory snippets relevant to query, scoped to the user's
// container when userID is set.
func (s *Supermemory) Search(ctx context.Context, query, userID string) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	payload := searchRequest{Query: query, Limit: s.limit}
	if userID != "" {
		payload.ContainerTag = ContainerTag(userID)
	}

	body, err := s.post(ctx, searchPath, payload)
	if err != nil {
		return nil, fmt.Errorf("supermemory search failed: %w", err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal supermemory search response: %w", err)
	}
	return extractSnippets(resp.Results), nil
}

// Add stores content as a document in the user's container.
func (s *Supermemory) Add(ctx context.Context, content, userID string, metadata map[string]any) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	payload := documentRequest{Content: content, Metadata: metadata}
	if userID != "" {
		payload.ContainerTag = ContainerTag(userID)
	}

	if _, err := s.post(ctx, documentsPath, payload); err != nil {
		return fmt.Errorf("supermemory add failed: %w", err)
	}
	log.Printf("✅ Stored memory document (%d chars) in container %s", len(content), payload.ContainerTag)
	return nil
}

// extractSnippets accepts plain strings or objects carrying content, memory
// or text. Other objects are kept as their raw JSON.
func extractSnippets(results []json.RawMessage) []string {
	snippets := make([]string, 0, len(results))
	for _, raw := range results {
		var str string
		if err := json.Unmarshal(raw, &str); err == nil {
			if str != "" {
				snippets = append(snippets, str)
			}
			continue
		}

		var obj struct {
			Content string `json:"content"`
			Memory  string `json:"memory"`
			Text    string `json:"text"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			continue
		}
		switch {
		case obj.Content != "":
			snippets = append(snippets, obj.Content)
		case obj.Memory != "":
			snippets = append(snippets, obj.Memory)
		case obj.Text != "":
			snippets = append(snippets, obj.Text)
		default:
			snippets = append(snippets, string(raw))
		}
	}
	return snippets
}

func (s *Supermemory) post(ctx context.Context, path string, payload any) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	return s.doRequestWithRetry(ctx, req)
}

// doRequestWithRetry retries transport errors and 5xx responses with
// exponential backoff. GetBody supplies a fresh body for every attempt.
func (s *Supermemory) doRequestWithRetry(ctx context.Context, req *http.Request) ([]byte, error) {
	var lastErr error
	delay := s.retryDelay
	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("failed to rewind request body: %w", err)
			}
			req.Body = body
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed (attempt %d/%d): %w", i+1, maxRetries, err)
			log.Println(lastErr)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("failed to read response body: %w", readErr)
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}
		lastErr = fmt.Errorf("API error (attempt %d/%d): status %d", i+1, maxRetries, resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, lastErr
		}
	}
	return nil, lastErr
}
