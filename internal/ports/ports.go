package ports

import (
	"context"
	"time"

	"github.com/forPelevin/clipcut/internal/types"
)

type MediaTool interface {
	// Available reports whether the cutting tool can be invoked at all.
	Available(ctx context.Context) error
	ExtractAudio(ctx context.Context, inMedia, outWav string) error
	Cut(ctx context.Context, inMedia string, start, dur time.Duration, outMP4, burnASS string) error
	ProbeDuration(ctx context.Context, inMedia string) (time.Duration, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, mediaPath string) (types.Transcript, error)
}

// TaskLLM answers a free-form prompt about a transcript. The answer has no
// guaranteed schema.
type TaskLLM interface {
	Task(ctx context.Context, prompt string, tr types.Transcript) (string, error)
}
