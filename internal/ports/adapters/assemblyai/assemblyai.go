// Package assemblyai talks to the hosted AssemblyAI service: it transcribes
// media and runs LeMUR tasks against the resulting transcript.
package assemblyai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"

	"github.com/forPelevin/clipcut/internal/types"
)

const DefaultModel = "anthropic/claude-3-haiku"

var ErrMissingAPIKey = errors.New("ASSEMBLYAI_API_KEY is required (set it in .env)")

type Adapter struct {
	key    string
	model  string
	client *aai.Client
}

func New(apiKey, model string) *Adapter {
	if model == "" {
		model = DefaultModel
	}
	return &Adapter{key: apiKey, model: model, client: aai.NewClient(apiKey)}
}

func (a *Adapter) Transcribe(ctx context.Context, mediaPath string) (types.Transcript, error) {
	if strings.TrimSpace(a.key) == "" {
		return types.Transcript{}, ErrMissingAPIKey
	}
	f, err := os.Open(mediaPath)
	if err != nil {
		return types.Transcript{}, err
	}
	defer f.Close()

	tr, err := a.client.Transcripts.TranscribeFromReader(ctx, f, nil)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("assemblyai transcribe: %w", err)
	}
	if tr.Status == aai.TranscriptStatusError {
		return types.Transcript{}, fmt.Errorf("assemblyai transcribe: %s", deref(tr.Error))
	}
	return toTranscript(tr), nil
}

// Task runs a LeMUR task over the transcript referenced by tr.ID.
func (a *Adapter) Task(ctx context.Context, prompt string, tr types.Transcript) (string, error) {
	if strings.TrimSpace(a.key) == "" {
		return "", ErrMissingAPIKey
	}
	if tr.ID == "" {
		return "", errors.New("assemblyai task: transcript has no id")
	}
	resp, err := a.client.LeMUR.Task(ctx, aai.LeMURTaskParams{
		Prompt: aai.String(prompt),
		LeMURBaseParams: aai.LeMURBaseParams{
			TranscriptIDs: []string{tr.ID},
			FinalModel:    aai.LeMURModel(a.model),
		},
	})
	if err != nil {
		return "", fmt.Errorf("assemblyai lemur task: %w", err)
	}
	return deref(resp.Response), nil
}

func toTranscript(tr aai.Transcript) types.Transcript {
	out := types.Transcript{
		ID:    deref(tr.ID),
		Text:  strings.TrimSpace(deref(tr.Text)),
		Words: make([]types.Word, 0, len(tr.Words)),
	}
	for _, w := range tr.Words {
		text := strings.TrimSpace(deref(w.Text))
		if text == "" {
			continue
		}
		out.Words = append(out.Words, types.Word{Text: text, StartMS: derefInt(w.Start), EndMS: derefInt(w.End)})
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}
