package main

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

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// errResponseBlocked marks a completion the provider refused (safety
// filter, recitation). Distinguishable from transport errors so callers
// can skip the email instead of retrying.
var errResponseBlocked = errors.New("response blocked by provider")

const defaultGeminiModel = "gemini-2.5-flash"
const defaultAnthropicModel = "claude-sonnet-4-5-20250929"

// llmClient is one blocking request/response completion call.
type llmClient interface {
	complete(ctx context.Context, prompt string) (string, error)
}

func newLLMClient(cfg Config) llmClient {
	switch cfg.LLMProvider {
	case "anthropic":
		model := cfg.LLMModel
		if model == "" {
			model = defaultAnthropicModel
		}
		return &anthropicClient{apiKey: cfg.AnthropicAPIKey, model: model}
	default:
		model := cfg.LLMModel
		if model == "" {
			model = defaultGeminiModel
		}
		return &geminiClient{apiKey: cfg.GeminiAPIKey, model: model}
	}
}

// stripCodeFences removes the ```json wrapper models add despite being
// told not to.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// --- Gemini ---

type geminiClient struct {
	apiKey string
	model  string
}

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
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
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
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *geminiClient) complete(ctx context.Context, prompt string) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenConfig{
			Temperature:     0.1,
			TopP:            0.8,
			TopK:            40,
			MaxOutputTokens: 2048,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s",
		c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := externalHTTPClient.Do(req)
	if err != nil {
		log.Printf("llm gemini error: %v", err)
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return "", fmt.Errorf("parsing Gemini response: %w", err)
	}

	if geminiResp.Error != nil {
		log.Printf("llm gemini api error code=%d: %s", geminiResp.Error.Code, geminiResp.Error.Message)
		return "", fmt.Errorf("Gemini API error: %s", geminiResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Gemini API status %d: %s", resp.StatusCode, string(respBody))
	}
	if geminiResp.PromptFeedback != nil && geminiResp.PromptFeedback.BlockReason != "" {
		log.Printf("llm gemini prompt blocked reason=%s", geminiResp.PromptFeedback.BlockReason)
		return "", errResponseBlocked
	}
	if len(geminiResp.Candidates) == 0 {
		return "", errResponseBlocked
	}

	candidate := geminiResp.Candidates[0]
	switch candidate.FinishReason {
	case "", "STOP":
	case "SAFETY", "RECITATION", "PROHIBITED_CONTENT", "BLOCKLIST":
		log.Printf("llm gemini candidate blocked reason=%s", candidate.FinishReason)
		return "", errResponseBlocked
	default:
		return "", fmt.Errorf("Gemini response incomplete, finish reason %s", candidate.FinishReason)
	}

	if len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content parts in Gemini response")
	}
	text := candidate.Content.Parts[0].Text
	log.Printf("llm gemini response model=%s size=%d", c.model, len(text))
	return text, nil
}

// --- Anthropic ---

type anthropicClient struct {
	apiKey string
	model  string
}

func (c *anthropicClient) complete(ctx context.Context, prompt string) (string, error) {
	client := anthropic.NewClient(option.WithAPIKey(c.apiKey))

	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 2048,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		log.Printf("llm anthropic error: %v", err)
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}
	if message.StopReason == "refusal" {
		return "", errResponseBlocked
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			log.Printf("llm anthropic response model=%s size=%d tokens_in=%d tokens_out=%d",
				c.model, len(block.Text), message.Usage.InputTokens, message.Usage.OutputTokens)
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Anthropic response")
}
