package whispercpp

import (
	"reflect"
	"testing"

	"github.com/forPelevin/clipcut/internal/types"
)

func TestDecode_MergesSubwordTokens(t *testing.T) {
	in := []byte(`{
  "transcription": [
    {
      "offsets": {"from": 0, "to": 2000},
      "text": " Hello wonderful world.",
      "tokens": [
        {"text": "[_BEG_]", "offsets": {"from": 0, "to": 0}},
        {"text": " Hello", "offsets": {"from": 0, "to": 400}},
        {"text": " wonder", "offsets": {"from": 400, "to": 700}},
        {"text": "ful", "offsets": {"from": 700, "to": 900}},
        {"text": " world", "offsets": {"from": 900, "to": 1400}},
        {"text": ".", "offsets": {"from": 1400, "to": 1500}}
      ]
    },
    {
      "offsets": {"from": 2000, "to": 3000},
      "text": " Bye.",
      "tokens": [
        {"text": " Bye.", "offsets": {"from": 2000, "to": 2600}}
      ]
    }
  ]
}`)
	tr, err := decode(in)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tr.Text != "Hello wonderful world. Bye." {
		t.Fatalf("unexpected text: %q", tr.Text)
	}
	want := []types.Word{
		{Text: "Hello", StartMS: 0, EndMS: 400},
		{Text: "wonderful", StartMS: 400, EndMS: 900},
		{Text: "world.", StartMS: 900, EndMS: 1500},
		{Text: "Bye.", StartMS: 2000, EndMS: 2600},
	}
	if !reflect.DeepEqual(tr.Words, want) {
		t.Fatalf("unexpected words:\n got %+v\nwant %+v", tr.Words, want)
	}
}

func TestDecode_InvalidJSON(t *testing.T) {
	if _, err := decode([]byte("not json")); err == nil {
		t.Fatalf("expected error")
	}
}
