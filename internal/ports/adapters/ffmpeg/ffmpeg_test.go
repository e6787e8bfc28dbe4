package ffmpeg

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestCutArgs(t *testing.T) {
	got := cutArgs("/in.mp4", 90*time.Second, 60*time.Second, "/out.mp4", "")
	want := []string{
		"-y", "-ss", "90.000", "-i", "/in.mp4", "-t", "60.000",
		"-c:v", "libx264", "-preset", "veryfast", "-c:a", "aac", "-b:a", "192k",
		"-movflags", "+faststart", "/out.mp4",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected args:\n got %q\nwant %q", got, want)
	}
}

func TestCutArgs_BurnsCaptions(t *testing.T) {
	got := cutArgs("/in.mp4", 0, time.Second, "/out.mp4", `C:\tmp\c.ass`)
	var vf string
	for i := range got {
		if got[i] == "-vf" {
			vf = got[i+1]
		}
	}
	if vf != `subtitles=C\:\\tmp\\c.ass` {
		t.Fatalf("unexpected filter: %q", vf)
	}
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("  123.456\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 123456*time.Millisecond {
		t.Fatalf("unexpected duration: %v", d)
	}
	for _, in := range []string{"", "N/A", "0", "-4"} {
		if _, err := parseDuration(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestAvailable_MissingBinary(t *testing.T) {
	a := New(filepath.Join(t.TempDir(), "no-such-ffmpeg"), "")
	if err := a.Available(context.Background()); err == nil {
		t.Fatalf("expected error for missing binary")
	}
}
