package whispercpp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/forPelevin/clipcut/internal/types"
)

type Adapter struct {
	bin   string
	model string
}

func New(binPath, modelPath string) *Adapter {
	return &Adapter{bin: binPath, model: modelPath}
}

// Transcribe runs whisper.cpp on a 16 kHz mono WAV and reads back its full
// JSON output.
func (a *Adapter) Transcribe(ctx context.Context, wavPath string) (types.Transcript, error) {
	dir, err := os.MkdirTemp("", "clipcut-whisper-")
	if err != nil {
		return types.Transcript{}, err
	}
	defer func() { _ = os.RemoveAll(dir) }()

	outPrefix := filepath.Join(dir, "whisper")
	args := []string{
		"-m", a.model,
		"-f", wavPath,
		"-ojf",
		"-of", outPrefix,
	}
	cmd := exec.CommandContext(ctx, a.bin, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.Transcript{}, fmt.Errorf("whisper.cpp failed: %w\n%s", err, string(b))
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return types.Transcript{}, err
	}
	return decode(jb)
}

type output struct {
	Transcription []struct {
		Offsets offsets `json:"offsets"`
		Text    string  `json:"text"`
		Tokens  []struct {
			Text    string  `json:"text"`
			Offsets offsets `json:"offsets"`
		} `json:"tokens"`
	} `json:"transcription"`
}

type offsets struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// decode merges whisper's sub-word tokens into words: a token that starts
// with a space opens a new word, anything else extends the previous one.
func decode(b []byte) (types.Transcript, error) {
	var out output
	if err := json.Unmarshal(b, &out); err != nil {
		return types.Transcript{}, fmt.Errorf("decode whisper json: %w", err)
	}

	var (
		tr    types.Transcript
		texts []string
	)
	for _, seg := range out.Transcription {
		if t := strings.TrimSpace(seg.Text); t != "" {
			texts = append(texts, t)
		}
		for _, tok := range seg.Tokens {
			if tok.Text == "" || strings.HasPrefix(tok.Text, "[_") {
				continue
			}
			newWord := strings.HasPrefix(tok.Text, " ") || len(tr.Words) == 0
			text := strings.TrimSpace(tok.Text)
			if text == "" {
				continue
			}
			if newWord {
				tr.Words = append(tr.Words, types.Word{Text: text, StartMS: tok.Offsets.From, EndMS: tok.Offsets.To})
				continue
			}
			last := &tr.Words[len(tr.Words)-1]
			last.Text += text
			last.EndMS = max(last.EndMS, tok.Offsets.To)
		}
	}
	tr.Text = strings.Join(texts, " ")
	return tr, nil
}
