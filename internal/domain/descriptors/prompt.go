package descriptors

import (
	"fmt"
	"strings"

	"github.com/forPelevin/clipcut/internal/types"
)

// Prompt renders the task instruction sent along with the transcript.
func Prompt(v types.Variant, clipsN int, clipDurationSec int) string {
	var b strings.Builder
	switch v {
	case types.VariantTutorial:
		fmt.Fprintf(&b, "Find the %d most educational, practical code examples or explanations in this programming tutorial.\n", clipsN)
		fmt.Fprintf(&b, "Each segment should be around %d seconds long and demonstrate a clear coding concept.\n\n", clipDurationSec)
		b.WriteString("Format your response as a valid JSON array, where each object has these exact fields:\n")
		b.WriteString(`- "timestamp": The exact timestamp where the clip should start (in MM:SS format)` + "\n")
		b.WriteString(`- "title": A descriptive title for the code concept (60 characters max)` + "\n")
		b.WriteString(`- "technology": The programming language or framework being demonstrated` + "\n")
		b.WriteString(`- "summary": A one-sentence summary of what developers will learn` + "\n\n")
		b.WriteString("Make sure the timestamps are accurate and exist in the transcript.\n")
		b.WriteString("Ensure each clip covers a different concept and is spaced sufficiently apart in the video.\n")
		b.WriteString("Pick segments with clear explanations of working code and practical implementation.")
	default:
		fmt.Fprintf(&b, "Find the %d most interesting, quotable, or 'clip-worthy' segments in this podcast.\n", clipsN)
		fmt.Fprintf(&b, "Each segment should be around %d seconds long and be able to stand alone as an engaging clip.\n", clipDurationSec)
		b.WriteString("For each segment, provide:\n")
		b.WriteString("1. The timestamp where the clip should start\n")
		b.WriteString("2. A catchy title for the clip (60 characters max)\n")
		b.WriteString("3. A one-sentence summary of why this clip is interesting\n\n")
		b.WriteString("Only include segments that would be engaging out of context and make viewers want to share the clip.")
	}
	return b.String()
}
