package geminiservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// --- Gemini API Configuration ---
const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	maxRetries     = 3
	requestTimeout = 120 * time.Second
)

var initialBackoff = 1 * time.Second

// --- Structs for Gemini API Request/Response ---

type Payload struct {
	Contents          []Content `json:"contents"`
	SystemInstruction *Content  `json:"systemInstruction,omitempty"`
	Tools             []Tool    `json:"tools,omitempty"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// FunctionCall is the model's request to invoke a declared tool.
type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// FunctionResponse carries a tool's result back to the model.
type FunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type Tool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations"`
}

type FunctionDeclaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

type Schema struct {
	Type       string           `json:"type"`
	Properties map[string]Field `json:"properties,omitempty"`
	Required   []string         `json:"required,omitempty"`
}

type Field struct {
	Type        string  `json:"type"`
	Description string  `json:"description,omitempty"`
	Items       *Schema `json:"items,omitempty"`
}

type Response struct {
	Candidates []struct {
		Content Content `json:"content"`
	} `json:"candidates"`
}

// Client calls the Gemini generateContent endpoint. The zero values of
// BaseURL and HTTP fall back to the production endpoint and a client with
// a request timeout suited to long generations.
type Client struct {
	APIKey  string
	Model   string
	BaseURL string
	HTTP    *http.Client
}

// Generate sends one generateContent request and returns the first
// candidate's content. The caller inspects the returned parts for text or
// function calls. Transport failures and non-200 statuses are retried with
// exponential backoff before the last error is surfaced.
func (c *Client) Generate(ctx context.Context, logger *zerolog.Logger, payload Payload) (*Content, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", baseURL, c.Model, c.APIKey)

	client := c.HTTP
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}

	var lastErr error

	// Exponential backoff retry loop
	for i := 0; i < maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payloadBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		logger.Info().Msgf("Attempt %d: Calling Gemini API...", i+1)

		resp, err := client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			logger.Warn().Err(lastErr).Msgf("Attempt %d failed", i+1)
			if err := backoff(ctx, i); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("API returned non-200 status: %s", resp.Status)
			logger.Warn().Err(lastErr).Msgf("Attempt %d failed", i+1)
			resp.Body.Close()
			if err := backoff(ctx, i); err != nil {
				return nil, err
			}
			continue
		}

		var geminiResp Response
		if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		resp.Body.Close()

		if len(geminiResp.Candidates) > 0 && len(geminiResp.Candidates[0].Content.Parts) > 0 {
			return &geminiResp.Candidates[0].Content, nil
		}

		return nil, fmt.Errorf("no content found in Gemini response")
	}

	return nil, fmt.Errorf("failed to call Gemini API after %d attempts: %w", maxRetries, lastErr)
}

// Text concatenates the text parts of a content block.
func (c *Content) Text() string {
	var out string
	for _, p := range c.Parts {
		out += p.Text
	}
	return out
}

// FirstFunctionCall returns the first function call among the parts, or nil.
func (c *Content) FirstFunctionCall() *FunctionCall {
	for _, p := range c.Parts {
		if p.FunctionCall != nil {
			return p.FunctionCall
		}
	}
	return nil
}

func backoff(ctx context.Context, attempt int) error {
	d := initialBackoff * time.Duration(math.Pow(2, float64(attempt)))
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
