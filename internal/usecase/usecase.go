package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/forPelevin/clipcut/internal/domain/captions"
	"github.com/forPelevin/clipcut/internal/domain/descriptors"
	"github.com/forPelevin/clipcut/internal/domain/validate"
	"github.com/forPelevin/clipcut/internal/ports"
	"github.com/forPelevin/clipcut/internal/types"
)

type Deps struct {
	Media       ports.MediaTool
	Transcriber ports.Transcriber
	LLM         ports.TaskLLM
	Log         zerolog.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase { return Usecase{d: d} }

type Input struct {
	MediaPath     string
	Variant       types.Variant
	ClipsN        int
	ClipDuration  time.Duration
	MinSpacing    time.Duration
	DefaultLength time.Duration
	BurnCaptions  bool

	// OutDir receives clips/NNN.mp4; TempDir holds intermediate files.
	OutDir  string
	TempDir string

	// CredentialHint is shown with service failures.
	CredentialHint string
	Logf           func(format string, args ...any)
}

// Run processes one media file start to finish. The returned result is
// always populated with whatever was computed; err is non-nil only when a
// service failure ended the batch, in which case result.State is error.
func (u Usecase) Run(ctx context.Context, in Input) (types.BatchResult, error) {
	b := newBatch(in, u.d.Log)
	if err := u.run(ctx, b); err != nil {
		b.fail(err)
		return b.result(), err
	}
	b.to(types.StateDone)
	return b.result(), nil
}

func (u Usecase) run(ctx context.Context, b *batch) error {
	in := b.in

	b.to(types.StateTranscribing)
	if err := u.d.Media.Available(ctx); err != nil {
		b.warn("media tool unavailable, transcript excerpts will replace clips: %v", err)
	} else {
		b.res.RenderAvailable = true
	}

	// The probe uses its own binary, so it runs even without the cutting tool.
	probed, probeErr := u.d.Media.ProbeDuration(ctx, in.MediaPath)
	if probeErr == nil && probed <= 0 {
		probeErr = fmt.Errorf("non-positive duration %s", probed)
	}
	if probeErr == nil {
		b.res.MediaDuration = probed.Seconds()
	}

	tr, err := u.transcribe(ctx, b)
	if err != nil {
		return err
	}
	b.transcript = tr
	b.res.Transcript = tr.Text
	b.res.MediaDuration = b.mediaDuration(probed, probeErr)

	b.logf("analysing transcript")
	prompt := descriptors.Prompt(in.Variant, in.ClipsN, int(in.ClipDuration.Seconds()))
	answer, err := u.d.LLM.Task(ctx, prompt, tr)
	if err != nil {
		return &ServiceError{Service: "task", Err: err, Hint: in.CredentialHint}
	}
	b.res.AIResponse = answer

	b.to(types.StateExtracting)
	ext := descriptors.Extract(answer, in.Variant)
	b.res.Strategy = string(ext.Strategy)
	if ext.Strategy == descriptors.StrategyEmpty {
		b.warn("no clip descriptions found in the AI response")
	}

	b.to(types.StateValidating)
	v := validate.Normalize(ext.Descriptors, validate.Options{
		Requested:     in.ClipsN,
		MediaDuration: b.res.MediaDuration,
		ClipDuration:  in.ClipDuration.Seconds(),
		MinSpacing:    in.MinSpacing.Seconds(),
	})
	for _, w := range v.Warnings {
		b.warn("%s", w)
	}

	b.to(types.StateRendering)
	for i, d := range v.Clips {
		cr := types.ClipResult{Index: i + 1, Descriptor: d}
		if b.res.RenderAvailable {
			b.logf("creating clip %d of %d", i+1, len(v.Clips))
			u.render(ctx, b, &cr)
		} else {
			cr.Excerpt = captions.Excerpt(tr.Words, d.StartSeconds, in.ClipDuration.Seconds())
			if cr.Excerpt == "" {
				b.warn("no transcript available for clip %d", i+1)
			}
		}
		b.res.Clips = append(b.res.Clips, cr)
	}
	return nil
}

// mediaDuration prefers the probe, then the end of the last transcribed
// word, then the configured default.
func (b *batch) mediaDuration(probed time.Duration, probeErr error) float64 {
	if probeErr == nil {
		return probed.Seconds()
	}
	var lastMS int64
	for _, w := range b.transcript.Words {
		lastMS = max(lastMS, w.EndMS)
	}
	if lastMS > 0 {
		sec := float64(lastMS) / 1000
		b.warn("could not determine media duration, using the end of the transcript (%.0fs): %v", sec, probeErr)
		return sec
	}
	sec := b.in.DefaultLength.Seconds()
	b.warn("could not determine media duration, assuming %.0fs: %v", sec, probeErr)
	return sec
}

// transcribe feeds the transcriber a temporary mono WAV when the media tool
// can make one, and the original file otherwise.
func (u Usecase) transcribe(ctx context.Context, b *batch) (types.Transcript, error) {
	src := b.in.MediaPath
	if b.res.RenderAvailable {
		b.logf("extracting audio")
		wav := b.tempPath(".wav")
		if err := u.d.Media.ExtractAudio(ctx, src, wav); err != nil {
			b.warn("audio extraction failed, sending the original media: %v", err)
		} else {
			src = wav
			defer removeQuietly(wav)
		}
	}

	b.logf("transcribing")
	tr, err := u.d.Transcriber.Transcribe(ctx, src)
	if err != nil {
		return types.Transcript{}, &ServiceError{Service: "transcription", Err: err, Hint: b.in.CredentialHint}
	}
	return tr, nil
}

func (u Usecase) render(ctx context.Context, b *batch, cr *types.ClipResult) {
	in := b.in
	id := fmt.Sprintf("%03d", cr.Index)
	rel := filepath.ToSlash(filepath.Join("clips", id+".mp4"))
	out := filepath.Join(in.OutDir, "clips", id+".mp4")
	start := time.Duration(cr.Descriptor.StartSeconds * float64(time.Second))

	burn := ""
	if in.BurnCaptions {
		ass := b.tempPath(".ass")
		doc := captions.RenderASS(b.transcript.Words, start, start+in.ClipDuration)
		if err := os.WriteFile(ass, []byte(doc), 0o644); err != nil {
			b.warn("clip %d: captions skipped: %v", cr.Index, err)
		} else {
			burn = ass
			defer removeQuietly(ass)
		}
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		b.clipError(cr, &ToolError{Op: "create clip dir", Err: err})
		return
	}
	if err := u.d.Media.Cut(ctx, in.MediaPath, start, in.ClipDuration, out, burn); err != nil {
		b.clipError(cr, &ToolError{Op: fmt.Sprintf("create clip %d", cr.Index), Err: err})
		return
	}
	cr.File = rel
	cr.SuggestedName = suggestedName(cr.Descriptor.Title, cr.Index)
}

var reNameStrip = regexp.MustCompile(`[^\w\s-]`)

func suggestedName(title string, n int) string {
	s := strings.TrimSpace(reNameStrip.ReplaceAllString(title, ""))
	s = strings.Join(strings.Fields(s), "_")
	if s == "" {
		s = "clip"
	}
	return fmt.Sprintf("%s_%d.mp4", s, n)
}

func removeQuietly(path string) { _ = os.Remove(path) }

type batch struct {
	in         Input
	log        zerolog.Logger
	res        types.BatchResult
	transcript types.Transcript
}

func newBatch(in Input, log zerolog.Logger) *batch {
	if in.Logf == nil {
		in.Logf = func(string, ...any) {}
	}
	if in.TempDir == "" {
		in.TempDir = os.TempDir()
	}
	if in.ClipDuration <= 0 {
		in.ClipDuration = time.Duration(validate.DefaultClipDuration) * time.Second
	}
	if in.DefaultLength <= 0 {
		in.DefaultLength = time.Duration(validate.DefaultMediaDuration) * time.Second
	}
	id := uuid.NewString()
	return &batch{
		in:  in,
		log: log.With().Str("batch", id).Logger(),
		res: types.BatchResult{
			ID:           id,
			Input:        in.MediaPath,
			Variant:      in.Variant,
			State:        types.StateIdle,
			ClipDuration: in.ClipDuration.Seconds(),
			Clips:        []types.ClipResult{},
		},
	}
}

func (b *batch) to(s types.BatchState) {
	b.log.Debug().Str("from", string(b.res.State)).Str("to", string(s)).Msg("state")
	b.res.State = s
	b.in.Logf("%s", s)
}

func (b *batch) logf(format string, args ...any) { b.in.Logf(format, args...) }

func (b *batch) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	b.log.Warn().Msg(msg)
	b.res.Warnings = append(b.res.Warnings, msg)
}

func (b *batch) clipError(cr *types.ClipResult, err error) {
	b.log.Error().Err(err).Int("clip", cr.Index).Msg("clip failed")
	cr.Error = err.Error()
	b.res.Errors = append(b.res.Errors, err.Error())
}

func (b *batch) fail(err error) {
	b.log.Error().Err(err).Str("state", string(b.res.State)).Msg("batch failed")
	b.res.State = types.StateError
	b.res.Failure = err.Error()
	b.res.Errors = append(b.res.Errors, err.Error())
	var se *ServiceError
	if errors.As(err, &se) {
		b.res.Remediation = se.Hint
	}
}

func (b *batch) tempPath(ext string) string {
	return filepath.Join(b.in.TempDir, "clipcut-"+uuid.NewString()+ext)
}

// result hands out a copy whose slices are not shared with the batch.
func (b *batch) result() types.BatchResult {
	r := b.res
	r.Clips = append([]types.ClipResult{}, b.res.Clips...)
	r.Warnings = append([]string(nil), b.res.Warnings...)
	r.Errors = append([]string(nil), b.res.Errors...)
	return r
}
