package openrouter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/forPelevin/clipcut/internal/domain/timestamp"
	"github.com/forPelevin/clipcut/internal/types"
)

const (
	DefaultModel   = "anthropic/claude-3.5-haiku"
	requestTimeout = 90 * time.Second
)

var ErrMissingAPIKey = errors.New("OPENROUTER_API_KEY is required (set it in .env)")

type Adapter struct {
	key    string
	model  string
	client *openai.Client
}

func New(apiKey, model, baseURL string) *Adapter {
	if model == "" {
		model = DefaultModel
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = normalizeBaseURL(baseURL) + apiPath
	cfg.HTTPClient = &http.Client{Timeout: 5 * time.Minute}
	return &Adapter{key: apiKey, model: model, client: openai.NewClientWithConfig(cfg)}
}

// Task sends the prompt together with a timestamped rendering of the
// transcript and returns the raw answer.
func (a *Adapter) Task(ctx context.Context, prompt string, tr types.Transcript) (string, error) {
	if strings.TrimSpace(a.key) == "" {
		return "", ErrMissingAPIKey
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := a.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You analyse transcripts of recorded media. Timestamps in the transcript are MM:SS offsets from the start of the media.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt + "\n\nTranscript:\n" + timedTranscript(tr),
			},
		},
	})
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("openrouter timeout after %s (model=%s)", requestTimeout, a.model)
		}
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("openrouter status %d: %s", apiErr.HTTPStatusCode, truncate(redactSecrets(apiErr.Message, a.key), 400))
		}
		return "", fmt.Errorf("openrouter: %s", truncate(redactSecrets(err.Error(), a.key), 400))
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// timedTranscript renders one line per sentence, prefixed with the start of
// its first word. Long sentences are broken every 15 seconds.
func timedTranscript(tr types.Transcript) string {
	if len(tr.Words) == 0 {
		return strings.TrimSpace(tr.Text)
	}
	const maxLine = 15 * 1000

	var (
		b         strings.Builder
		parts     []string
		lineStart int64
	)
	flush := func() {
		if len(parts) == 0 {
			return
		}
		sec := math.Floor(float64(lineStart) / 1000)
		fmt.Fprintf(&b, "[%s] %s\n", timestamp.Format(sec), strings.Join(parts, " "))
		parts = parts[:0]
	}
	for _, w := range tr.Words {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		if len(parts) > 0 && w.StartMS-lineStart >= maxLine {
			flush()
		}
		if len(parts) == 0 {
			lineStart = w.StartMS
		}
		parts = append(parts, text)
		if strings.ContainsAny(text[len(text)-1:], ".!?") {
			flush()
		}
	}
	flush()
	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}
