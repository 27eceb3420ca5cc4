package llmprovider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	openai "github.com/sashabaranov/go-openai"

	"helm-server/internal/domain/llm"
)

// Client implements the llm.Provider interface against any
// OpenAI-compatible chat completions endpoint.
type Client struct {
	httpClient *resty.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewClient creates a Resty-backed client.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(75 * time.Second),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
	}
}

// Complete calls /chat/completions and returns the first choice's text.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	var completion openai.ChatCompletionResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetBody(c.buildRequest(req, false)).
		SetResult(&completion).
		Post("/chat/completions")
	if err != nil {
		return "", llm.NewProviderError(llm.CategoryConnection, 0, err)
	}
	if resp.IsError() {
		return "", categorizeStatus(resp.StatusCode(), fmt.Errorf("llm api error: %s", resp.String()))
	}

	if len(completion.Choices) == 0 {
		return "", llm.NewProviderError(llm.CategoryOther, resp.StatusCode(),
			fmt.Errorf("llm api returned no choices"))
	}
	return completion.Choices[0].Message.Content, nil
}

// StreamCompletion calls /chat/completions with streaming enabled.
func (c *Client) StreamCompletion(ctx context.Context, req llm.CompletionRequest) (llm.Stream, error) {
	body, err := json.Marshal(c.buildRequest(req, true))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpClient := &http.Client{Timeout: 120 * time.Second}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, llm.NewProviderError(llm.CategoryConnection, 0, err)
	}

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, categorizeStatus(resp.StatusCode,
			fmt.Errorf("llm api error: %d %s", resp.StatusCode, string(errBody)))
	}

	return &sseStream{
		resp:   resp,
		reader: bufio.NewReader(resp.Body),
	}, nil
}

func (c *Client) buildRequest(req llm.CompletionRequest, stream bool) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
		Stream:    stream,
	}
}

// categorizeStatus maps an HTTP status to a retry category. 429 means rate
// limited; 503 and 529 mean the upstream is shedding load.
func categorizeStatus(statusCode int, err error) error {
	switch statusCode {
	case http.StatusTooManyRequests:
		return llm.NewProviderError(llm.CategoryRateLimit, statusCode, err)
	case http.StatusServiceUnavailable, 529:
		return llm.NewProviderError(llm.CategoryOverloaded, statusCode, err)
	default:
		return llm.NewProviderError(llm.CategoryOther, statusCode, err)
	}
}

// Ensure interface compliance.
var _ llm.Provider = (*Client)(nil)

// sseStream implements llm.Stream backed by http.Response body with SSE parsing.
type sseStream struct {
	resp   *http.Response
	reader *bufio.Reader
}

func (s *sseStream) Recv() (string, error) {
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return "", io.EOF
			}
			return "", llm.NewProviderError(llm.CategoryConnection, 0, fmt.Errorf("read line: %w", err))
		}

		line = strings.TrimSpace(line)

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}

		// Look for data: prefix
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")

		// Check for stream termination
		if data == "[DONE]" {
			return "", io.EOF
		}

		// Parse the JSON delta
		var delta openai.ChatCompletionStreamResponse
		if err := json.Unmarshal([]byte(data), &delta); err != nil {
			// Skip malformed chunks
			continue
		}

		if len(delta.Choices) == 0 {
			continue
		}
		return delta.Choices[0].Delta.Content, nil
	}
}

func (s *sseStream) Close() error {
	if s.resp != nil && s.resp.Body != nil {
		return s.resp.Body.Close()
	}
	return nil
}
