// Package validate repairs the clip descriptors read from an AI answer so
// they can be cut from the media: every clip gets a start time, starts stay
// inside the media and consecutive starts keep a minimum distance.
package validate

import (
	"fmt"
	"math"
	"sort"

	"github.com/forPelevin/clipcut/internal/domain/timestamp"
	"github.com/forPelevin/clipcut/internal/types"
)

const (
	DefaultMediaDuration = 600.0
	DefaultClipDuration  = 60.0
	DefaultMinSpacing    = 20.0
)

type Options struct {
	Requested     int
	MediaDuration float64
	ClipDuration  float64
	MinSpacing    float64
}

func (o Options) withDefaults() Options {
	if o.MediaDuration <= 0 {
		o.MediaDuration = DefaultMediaDuration
	}
	if o.ClipDuration <= 0 {
		o.ClipDuration = DefaultClipDuration
	}
	if o.MinSpacing < 0 {
		o.MinSpacing = 0
	}
	if o.Requested < 0 {
		o.Requested = 0
	}
	return o
}

// LastStart is the latest start that still leaves a full clip before the
// end of the media.
func (o Options) LastStart() float64 {
	o = o.withDefaults()
	return max(0, o.MediaDuration-o.ClipDuration)
}

type Result struct {
	Clips    []types.Descriptor
	Warnings []string
}

// Normalize returns a start-sorted copy of in. Input order decides the
// fallback slot of clips whose timestamp cannot be parsed.
func Normalize(in []types.Descriptor, opts Options) Result {
	opts = opts.withDefaults()
	var res Result
	if len(in) < opts.Requested {
		res.Warnings = append(res.Warnings, fmt.Sprintf("only found %d clips instead of the requested %d", len(in), opts.Requested))
	}

	lastStart := opts.LastStart()
	slots := float64(min(len(in)+1, opts.Requested+1))

	clips := make([]types.Descriptor, 0, len(in))
	for i, d := range in {
		start, ok := timestamp.Parse(d.Timestamp)
		if ok && d.StartSeconds > 0 && math.Floor(d.StartSeconds) == start {
			// Timestamps show whole seconds; keep the exact start of a clip
			// that was normalized before.
			start = d.StartSeconds
		}
		if !ok {
			start = float64(i) * opts.MediaDuration / slots
			d.Timestamp = timestamp.Format(start)
			res.Warnings = append(res.Warnings, fmt.Sprintf("fixed invalid timestamp for clip %q", d.Title))
		}
		if start > lastStart {
			start = lastStart
			d.Timestamp = timestamp.Format(start)
		}
		d.StartSeconds = start
		clips = append(clips, d)
	}

	sort.SliceStable(clips, func(i, j int) bool { return clips[i].StartSeconds < clips[j].StartSeconds })

	// Single left-to-right pass: each clip is compared with its already
	// adjusted predecessor only.
	for i := 1; i < len(clips); i++ {
		prev := clips[i-1].StartSeconds
		if clips[i].StartSeconds-prev < opts.MinSpacing {
			clips[i].StartSeconds = prev + opts.MinSpacing
			clips[i].Timestamp = timestamp.Format(clips[i].StartSeconds)
		}
	}

	for i, d := range clips {
		if d.StartSeconds > lastStart {
			res.Warnings = append(res.Warnings, fmt.Sprintf("dropped %d clips that no longer fit before the end of the media", len(clips)-i))
			clips = clips[:i]
			break
		}
	}

	res.Clips = clips
	return res
}
