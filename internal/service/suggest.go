package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/genai"

	"github.com/iliyamo/community-hub/internal/config"
	"github.com/iliyamo/community-hub/internal/metrics"
)

// DefaultModels follow the configured model in the priority list.
var DefaultModels = []string{"gemini-2.5-flash", "gemini-2.0-flash", "gemini-1.5-flash"}

// Generator produces text for a prompt with a given model.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// RESTGenerator calls the generateContent REST endpoint directly.
type RESTGenerator struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewRESTGenerator(cfg config.GenAIConfig) *RESTGenerator {
	return &RESTGenerator{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
	}
}

type genPart struct {
	Text string `json:"text"`
}

type genContent struct {
	Role  string    `json:"role,omitempty"`
	Parts []genPart `json:"parts"`
}

type genRequest struct {
	Contents []genContent `json:"contents"`
}

type genResponse struct {
	Candidates []struct {
		Content genContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (g *RESTGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	body, err := json.Marshal(genRequest{Contents: []genContent{{Role: "user", Parts: []genPart{{Text: prompt}}}}})
	if err != nil {
		return "", err
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, url.PathEscape(model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", err
	}
	var out genResponse
	_ = json.Unmarshal(raw, &out)
	if resp.StatusCode/100 != 2 {
		if out.Error != nil && out.Error.Message != "" {
			return "", errors.New(out.Error.Message)
		}
		return "", fmt.Errorf("generateContent %s: HTTP %d", model, resp.StatusCode)
	}
	var sb strings.Builder
	for _, c := range out.Candidates {
		for _, p := range c.Content.Parts {
			sb.WriteString(p.Text)
		}
		if sb.Len() > 0 {
			break
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// SDKGenerator goes through the official client library.  It is the last
// resort once every direct call has failed.
type SDKGenerator struct {
	apiKey string
}

func NewSDKGenerator(cfg config.GenAIConfig) *SDKGenerator {
	return &SDKGenerator{apiKey: cfg.APIKey}
}

func (g *SDKGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: g.apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return "", err
	}
	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if p != nil {
				sb.WriteString(p.Text)
			}
		}
		if sb.Len() > 0 {
			break
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// Suggester tries each model in priority order against the direct
// endpoint, then the SDK, and returns the first non-empty text.  Attempts
// follow each other immediately.
type Suggester struct {
	models     []string
	direct     Generator
	fallback   Generator
	configured bool
	metrics    *metrics.Metrics
}

func NewSuggester(cfg config.GenAIConfig, m *metrics.Metrics) *Suggester {
	return &Suggester{
		models:     modelPriority(cfg.Model),
		direct:     NewRESTGenerator(cfg),
		fallback:   NewSDKGenerator(cfg),
		configured: cfg.APIKey != "",
		metrics:    m,
	}
}

func modelPriority(preferred string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range append([]string{strings.TrimSpace(preferred)}, DefaultModels...) {
		if m != "" && !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// Suggest returns generated text for prompt.
func (s *Suggester) Suggest(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrInvalidPrompt
	}
	if !s.configured {
		return "", fmt.Errorf("%w: generation API key is missing", ErrNotConfigured)
	}
	lastErr := errors.New("no model returned text")
	for _, m := range s.models {
		text, err := s.direct.Generate(ctx, m, prompt)
		if err == nil && text != "" {
			s.metrics.IncSuggestAttempt(m, "ok")
			return text, nil
		}
		s.metrics.IncSuggestAttempt(m, "error")
		if err != nil {
			lastErr = err
		}
		if ctx.Err() != nil {
			return "", &UpstreamError{Service: "genai", Err: ctx.Err()}
		}
	}
	if s.fallback != nil {
		text, err := s.fallback.Generate(ctx, s.models[0], prompt)
		if err == nil && text != "" {
			s.metrics.IncSuggestAttempt("sdk:"+s.models[0], "ok")
			return text, nil
		}
		s.metrics.IncSuggestAttempt("sdk:"+s.models[0], "error")
		if err != nil {
			lastErr = err
		}
	}
	return "", &UpstreamError{Service: "genai", Err: lastErr}
}
