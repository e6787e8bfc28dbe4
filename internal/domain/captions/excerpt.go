package captions

import (
	"strings"

	"github.com/forPelevin/clipcut/internal/types"
)

// Excerpt joins the words whose start falls in [startSec, startSec+durSec).
// It stands in for a clip when no media tool is available.
func Excerpt(words []types.Word, startSec, durSec float64) string {
	var parts []string
	for _, w := range words {
		ws := float64(w.StartMS) / 1000
		if ws < startSec || ws >= startSec+durSec {
			continue
		}
		if t := strings.TrimSpace(w.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
