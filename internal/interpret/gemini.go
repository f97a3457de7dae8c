package interpret

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// ErrRateLimited is returned when the provider answers 429.
var ErrRateLimited = eris.New("rate limited")

// GeminiModel calls the Gemini generateContent REST endpoint.
type GeminiModel struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// GeminiOption configures a GeminiModel.
type GeminiOption func(*GeminiModel)

// WithBaseURL overrides the API root, e.g. for tests.
func WithBaseURL(u string) GeminiOption {
	return func(g *GeminiModel) { g.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) GeminiOption {
	return func(g *GeminiModel) { g.client = c }
}

// NewGeminiModel creates a Gemini client. model defaults to gemini-2.5-flash.
func NewGeminiModel(apiKey, model string, opts ...GeminiOption) *GeminiModel {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	g := &GeminiModel{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultGeminiBaseURL,
		client:  &http.Client{Timeout: 90 * time.Second},
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// geminiRequest / geminiResponse for the REST API
type geminiRequest struct {
	SystemInstruction *content         `json:"system_instruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends the prompt and returns the concatenated text parts of the
// first candidate.
func (g *GeminiModel) Generate(ctx context.Context, p Prompt) (string, error) {
	reqBody := geminiRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: p.User}}},
		},
		GenerationConfig: generationConfig{
			Temperature:      p.Temperature,
			ResponseMimeType: "application/json",
		},
	}
	if p.System != "" {
		reqBody.SystemInstruction = &content{Parts: []part{{Text: p.System}}}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", eris.Wrap(err, "gemini: marshal request")
	}

	apiURL := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return "", eris.Wrap(err, "gemini: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "gemini: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "gemini: read response")
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", eris.Wrap(ErrRateLimited, "gemini")
	}
	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("gemini: API error %d: %s", resp.StatusCode, truncate(string(body), 300))
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", eris.Wrap(err, "gemini: parse response")
	}

	if geminiResp.Error != nil {
		if geminiResp.Error.Code == http.StatusTooManyRequests {
			return "", eris.Wrap(ErrRateLimited, "gemini")
		}
		return "", eris.Errorf("gemini: API error: %s", geminiResp.Error.Message)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", eris.New("gemini: empty response")
	}

	var sb strings.Builder
	for _, pt := range geminiResp.Candidates[0].Content.Parts {
		sb.WriteString(pt.Text)
	}
	return sb.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
