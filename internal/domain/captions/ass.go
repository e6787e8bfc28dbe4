// Package captions builds text derived from the word-level transcript for a
// single clip: a plain excerpt and a karaoke-style ASS subtitle file.
package captions

import (
	"fmt"
	"strings"
	"time"

	"github.com/forPelevin/clipcut/internal/types"
)

// RenderASS returns an ASS document for the clip [start, end) with times
// relative to the clip start. When no word overlaps the range the document
// holds a single empty event so ffmpeg still accepts it.
func RenderASS(words []types.Word, start, end time.Duration) string {
	ws := clipWords(words, start, end)
	if len(ws) == 0 {
		return renderPlain("", end-start)
	}
	return renderKaraoke(packWords(ws))
}

type word struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

type line struct {
	Start time.Duration
	End   time.Duration
	Words []word
}

func clipWords(words []types.Word, start, end time.Duration) []word {
	var out []word
	for _, w := range words {
		ws := time.Duration(w.StartMS) * time.Millisecond
		we := time.Duration(w.EndMS) * time.Millisecond
		if we <= ws || we <= start || ws >= end {
			continue
		}
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		ws = max(ws, start)
		we = min(we, end)
		out = append(out, word{Start: ws - start, End: we - start, Text: sanitize(text)})
	}
	return out
}

func packWords(words []word) []line {
	const (
		charBudget = 42
		wordBudget = 9
	)
	var out []line
	cur := line{Start: words[0].Start}
	curLen := 0
	for i, w := range words {
		wl := len([]rune(w.Text))
		nextLen := curLen + wl
		if curLen > 0 {
			nextLen++
		}
		if len(cur.Words) > 0 && (len(cur.Words) >= wordBudget || nextLen > charBudget) {
			cur.End = cur.Words[len(cur.Words)-1].End
			out = append(out, cur)
			cur = line{Start: w.Start}
			curLen = 0
		}
		cur.Words = append(cur.Words, w)
		if curLen > 0 {
			curLen++
		}
		curLen += wl
		if i == len(words)-1 {
			cur.End = w.End
			out = append(out, cur)
		}
	}
	return out
}

func renderKaraoke(lines []line) string {
	var b strings.Builder
	writeHeader(&b)
	for _, ln := range lines {
		b.WriteString("Dialogue: 0,")
		b.WriteString(assTime(ln.Start))
		b.WriteString(",")
		b.WriteString(assTime(ln.End))
		b.WriteString(",Clip,,0,0,0,,")
		for _, w := range ln.Words {
			cs := max(int((w.End-w.Start)/(10*time.Millisecond)), 1)
			fmt.Fprintf(&b, "{\\k%d}%s ", cs, w.Text)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderPlain(text string, d time.Duration) string {
	var b strings.Builder
	writeHeader(&b)
	b.WriteString("Dialogue: 0,0:00:00.00,")
	b.WriteString(assTime(d))
	b.WriteString(",Clip,,0,0,0,,")
	b.WriteString(sanitize(text))
	b.WriteString("\n")
	return b.String()
}

func writeHeader(b *strings.Builder) {
	b.WriteString(strings.TrimSpace(`
[Script Info]
ScriptType: v4.00+
PlayResX: 1920
PlayResY: 1080
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Clip, Inter, 64, &H00FFFFFF, &H00FFD200, &H00000000, &H64000000, 1,0,0,0,100,100,0,0,1,5,2,2, 80,80,70,1
`))
	b.WriteString("\n\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d / time.Hour)
	d -= time.Duration(h) * time.Hour
	m := int(d / time.Minute)
	d -= time.Duration(m) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	return strings.TrimSpace(s)
}
