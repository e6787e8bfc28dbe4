package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/forPelevin/clipcut/internal/config"
	"github.com/forPelevin/clipcut/internal/ports"
	"github.com/forPelevin/clipcut/internal/ports/adapters/assemblyai"
	"github.com/forPelevin/clipcut/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/clipcut/internal/ports/adapters/openrouter"
	"github.com/forPelevin/clipcut/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/clipcut/internal/types"
	"github.com/forPelevin/clipcut/internal/usecase"
)

// Request describes one batch. Zero values fall back to the runner's config.
type Request struct {
	InputPath    string
	Variant      types.Variant
	ClipsN       int
	ClipDuration time.Duration
	BurnCaptions bool
	Logf         func(format string, args ...any)
}

// ErrInvalidRequest wraps every rejection of a Request before work starts.
var ErrInvalidRequest = errors.New("invalid request")

type Output struct {
	RunDir       string
	ManifestPath string
	Result       types.BatchResult
}

type Runner struct {
	cfg config.Config
	uc  usecase.Usecase
	log zerolog.Logger

	// CacheDir is the base directory for intermediate files. If empty,
	// defaults to ".cache".
	CacheDir string
	now      func() time.Time
}

// New wires the adapters selected by cfg.Provider.
func New(cfg config.Config, log zerolog.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	deps, err := adapters(cfg)
	if err != nil {
		return nil, err
	}
	deps.Log = log.With().Str("component", "usecase").Logger()
	return newRunner(cfg, deps, log), nil
}

func newRunner(cfg config.Config, deps usecase.Deps, log zerolog.Logger) *Runner {
	return &Runner{
		cfg: cfg,
		uc:  usecase.New(deps),
		log: log.With().Str("component", "pipeline").Logger(),
		now: time.Now,
	}
}

func adapters(cfg config.Config) (usecase.Deps, error) {
	media := ffmpeg.New(cfg.Tools.FFmpeg, cfg.Tools.FFprobe)
	switch cfg.Provider {
	case config.ProviderAssemblyAI:
		aai := assemblyai.New(cfg.AssemblyAI.APIKey, cfg.AssemblyAI.Model)
		return usecase.Deps{Media: media, Transcriber: aai, LLM: aai}, nil
	case config.ProviderLocal:
		return usecase.Deps{
			Media:       media,
			Transcriber: whispercpp.New(cfg.Tools.WhisperBin, cfg.Tools.WhisperModel),
			LLM:         openrouter.New(cfg.OpenRouter.APIKey, cfg.OpenRouter.Model, cfg.OpenRouter.BaseURL),
		}, nil
	default:
		return usecase.Deps{}, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func (r *Runner) request(req Request) (Request, error) {
	if req.InputPath == "" {
		return req, errors.New("input is empty")
	}
	if _, err := os.Stat(req.InputPath); err != nil {
		return req, fmt.Errorf("stat input: %w", err)
	}
	if req.Variant == "" {
		req.Variant = types.Variant(r.cfg.Variant)
	}
	if !req.Variant.Valid() {
		return req, fmt.Errorf("unknown variant %q", req.Variant)
	}
	if req.ClipsN == 0 {
		req.ClipsN = r.cfg.Clips
	}
	if req.ClipsN < 1 || req.ClipsN > 5 {
		return req, fmt.Errorf("clips must be between 1 and 5, got %d", req.ClipsN)
	}
	if req.ClipDuration == 0 {
		req.ClipDuration = time.Duration(r.cfg.ClipDuration) * time.Second
	}
	if req.ClipDuration < 30*time.Second || req.ClipDuration > 120*time.Second {
		return req, fmt.Errorf("clip duration must be between 30s and 120s, got %s", req.ClipDuration)
	}
	if req.Logf == nil {
		req.Logf = func(string, ...any) {}
	}
	return req, nil
}

// Run executes one batch and writes manifest.json into a fresh run
// directory. The manifest is written for failed batches too; the returned
// error is the batch failure, if any.
func (r *Runner) Run(ctx context.Context, req Request) (Output, error) {
	req, err := r.request(req)
	if err != nil {
		return Output{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	logf := req.Logf

	jobID := hash(req.InputPath)
	baseCache := r.CacheDir
	if baseCache == "" {
		baseCache = ".cache"
	}
	cacheDir := filepath.Join(baseCache, "runs", jobID)
	logf("preparing workspace")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return Output{}, err
	}
	defer func() { _ = os.RemoveAll(cacheDir) }()

	outDir := r.cfg.OutDir
	if outDir == "" {
		outDir = "out"
	}
	runOutDir := buildRunOutDir(outDir, req.InputPath, r.now().UTC())
	if err := os.MkdirAll(runOutDir, 0o755); err != nil {
		return Output{}, err
	}
	logf("output run dir: %s", runOutDir)

	res, runErr := r.uc.Run(ctx, usecase.Input{
		MediaPath:      req.InputPath,
		Variant:        req.Variant,
		ClipsN:         req.ClipsN,
		ClipDuration:   req.ClipDuration,
		MinSpacing:     time.Duration(r.cfg.MinSpacing) * time.Second,
		DefaultLength:  time.Duration(r.cfg.DefaultMediaDuration) * time.Second,
		BurnCaptions:   req.BurnCaptions,
		OutDir:         runOutDir,
		TempDir:        cacheDir,
		CredentialHint: r.cfg.CredentialHint(),
		Logf:           logf,
	})

	out := Output{RunDir: runOutDir, Result: res}
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return out, errors.Join(runErr, fmt.Errorf("marshal manifest: %w", err))
	}
	manifestPath := filepath.Join(runOutDir, "manifest.json")
	if err := os.WriteFile(manifestPath, b, 0o644); err != nil {
		return out, errors.Join(runErr, err)
	}
	out.ManifestPath = manifestPath
	logf("manifest written (%d clips): %s", len(res.Clips), manifestPath)
	r.log.Info().
		Str("batch", res.ID).
		Str("state", string(res.State)).
		Int("clips", len(res.Clips)).
		Int("warnings", len(res.Warnings)).
		Msg("batch finished")
	return out, runErr
}

func buildRunOutDir(outRoot, input string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", input, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.MediaTool = (*ffmpeg.Adapter)(nil)
var _ ports.Transcriber = (*whispercpp.Adapter)(nil)
var _ ports.Transcriber = (*assemblyai.Adapter)(nil)
var _ ports.TaskLLM = (*assemblyai.Adapter)(nil)
var _ ports.TaskLLM = (*openrouter.Adapter)(nil)
