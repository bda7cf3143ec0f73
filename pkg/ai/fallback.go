package ai

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
)

// FallbackService routes between providers:
// - RefineText: Ollama first (local, free), fallback to Gemini.
// - InterpretUtterance / SummarizeEmails: Gemini first (better structured
//   output), fallback to Ollama on quota exhaustion.
type FallbackService struct {
	gemini Service
	ollama Service
}

func NewFallbackService(gemini, ollama Service) *FallbackService {
	return &FallbackService{gemini: gemini, ollama: ollama}
}

// isConnectionError checks if the error is a network/connection error.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := err.(net.Error); ok {
		return true
	}

	errStr := strings.ToLower(err.Error())
	connectionIndicators := []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"eof",
	}
	for _, indicator := range connectionIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

// isQuotaError checks if the error indicates API quota exhaustion (429).
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	quotaIndicators := []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
	}
	for _, indicator := range quotaIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

func (f *FallbackService) RefineText(ctx context.Context, text string) (string, error) {
	if f.ollama != nil {
		result, err := f.ollama.RefineText(ctx, text)
		if err == nil {
			return result, nil
		}
		log.Printf("[AI] Ollama refine failed: %v, falling back to Gemini", err)
	}

	if f.gemini != nil {
		result, err := f.gemini.RefineText(ctx, text)
		if err == nil {
			return result, nil
		}
		if isQuotaError(err) && f.ollama != nil {
			log.Printf("[AI] Gemini quota exhausted: %v, retrying Ollama", err)
			return f.ollama.RefineText(ctx, text)
		}
		return "", fmt.Errorf("gemini refine failed: %w", err)
	}

	return "", fmt.Errorf("no AI provider available for text refinement")
}

func (f *FallbackService) InterpretUtterance(ctx context.Context, utterance, mode string) (*Intent, error) {
	if f.gemini != nil {
		result, err := f.gemini.InterpretUtterance(ctx, utterance, mode)
		if err == nil {
			return result, nil
		}
		if isQuotaError(err) {
			log.Printf("[AI] Gemini quota exhausted: %v, falling back to Ollama", err)
		} else {
			log.Printf("[AI] Gemini error: %v, falling back to Ollama", err)
		}
	}

	if f.ollama != nil {
		result, err := f.ollama.InterpretUtterance(ctx, utterance, mode)
		if err == nil {
			return result, nil
		}
		if isConnectionError(err) && f.gemini != nil {
			log.Printf("[AI] Ollama connection failed: %v, retrying Gemini", err)
			return f.gemini.InterpretUtterance(ctx, utterance, mode)
		}
		return nil, fmt.Errorf("ollama interpretation failed: %w", err)
	}

	return nil, fmt.Errorf("no AI provider available for interpretation")
}

func (f *FallbackService) SummarizeEmails(ctx context.Context, emailsText string) (string, error) {
	if f.gemini != nil {
		result, err := f.gemini.SummarizeEmails(ctx, emailsText)
		if err == nil {
			return result, nil
		}
		if isQuotaError(err) {
			log.Printf("[AI] Gemini quota exhausted: %v, falling back to Ollama", err)
		} else {
			log.Printf("[AI] Gemini error: %v, falling back to Ollama", err)
		}
	}

	if f.ollama != nil {
		result, err := f.ollama.SummarizeEmails(ctx, emailsText)
		if err == nil {
			return result, nil
		}
		if isConnectionError(err) && f.gemini != nil {
			log.Printf("[AI] Ollama connection failed: %v, retrying Gemini", err)
			return f.gemini.SummarizeEmails(ctx, emailsText)
		}
		return "", fmt.Errorf("ollama summarization failed: %w", err)
	}

	return "", fmt.Errorf("no AI provider available for summarization")
}
