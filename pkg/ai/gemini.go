package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent"

// GeminiService implements Service over the Gemini generateContent API.
type GeminiService struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

func NewGeminiService(apiKey string) *GeminiService {
	return &GeminiService{
		apiKey:   apiKey,
		endpoint: defaultGeminiEndpoint,
		client:   &http.Client{},
	}
}

func (g *GeminiService) RefineText(ctx context.Context, text string) (string, error) {
	return g.generate(ctx, refinePrompt(text))
}

func (g *GeminiService) InterpretUtterance(ctx context.Context, utterance, mode string) (*Intent, error) {
	raw, err := g.generate(ctx, interpretPrompt(utterance, mode))
	if err != nil {
		return nil, err
	}
	return parseIntent(raw)
}

func (g *GeminiService) SummarizeEmails(ctx context.Context, emailsText string) (string, error) {
	return g.generate(ctx, digestPrompt(emailsText))
}

func (g *GeminiService) generate(ctx context.Context, prompt string) (string, error) {
	url := g.endpoint + "?key=" + g.apiKey

	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no text returned")
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}
