package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// Gemini extracts billing items via the Gemini generateContent API using a
// JSON response schema, so the model answer is machine-parseable.
type Gemini struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// GeminiOption customizes the client.
type GeminiOption func(*Gemini)

// WithBaseURL overrides the API endpoint. Used in tests.
func WithBaseURL(u string) GeminiOption {
	return func(g *Gemini) { g.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) GeminiOption {
	return func(g *Gemini) { g.client = c }
}

// NewGemini creates a Gemini-backed extractor.
func NewGemini(apiKey, model string, opts ...GeminiOption) *Gemini {
	g := &Gemini{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultGeminiBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// request/response shapes for the generateContent endpoint. Only the
// fields this client touches are modelled.

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	ResponseMimeType string          `json:"responseMimeType"`
	ResponseSchema   json.RawMessage `json:"responseSchema"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// itemsSchema constrains the model output to {items:[{name,price,quantity}]}.
var itemsSchema = json.RawMessage(`{
	"type": "OBJECT",
	"properties": {
		"items": {
			"type": "ARRAY",
			"items": {
				"type": "OBJECT",
				"properties": {
					"name": {"type": "STRING"},
					"price": {"type": "NUMBER"},
					"quantity": {"type": "NUMBER"}
				},
				"required": ["name", "price", "quantity"]
			}
		}
	},
	"required": ["items"]
}`)

// Extract sends the free text to the model and parses the structured answer.
func (g *Gemini) Extract(ctx context.Context, text string) ([]Item, error) {
	prompt := fmt.Sprintf("Extract billing items from the following text: %q. "+
		"Return the items with their name, unit price, and quantity. "+
		"If quantity is not specified, assume 1. Prices should be numbers.", text)

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   itemsSchema,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal request")
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "call extraction service")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("extraction service returned %d: %s", resp.StatusCode, snippet)
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, ErrNoItems
	}

	return parseItems(parsed.Candidates[0].Content.Parts[0].Text)
}

// parseItems parses the model's JSON answer into items, dropping entries
// with empty names and defaulting quantity to 1.
func parseItems(answer string) ([]Item, error) {
	var result struct {
		Items []struct {
			Name     string      `json:"name"`
			Price    json.Number `json:"price"`
			Quantity json.Number `json:"quantity"`
		} `json:"items"`
	}
	if err := json.Unmarshal([]byte(answer), &result); err != nil {
		return nil, errors.Wrap(err, "parse model answer")
	}

	items := make([]Item, 0, len(result.Items))
	for _, raw := range result.Items {
		if raw.Name == "" {
			continue
		}
		price, err := decimal.NewFromString(raw.Price.String())
		if err != nil || price.IsNegative() {
			continue
		}
		qty := 1
		if q, err := raw.Quantity.Int64(); err == nil && q > 0 {
			qty = int(q)
		}
		items = append(items, Item{Name: raw.Name, Price: price, Quantity: qty})
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	return items, nil
}
