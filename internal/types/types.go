package types

// Variant selects the prompt and the descriptor fields a batch works with.
type Variant string

const (
	VariantPodcast  Variant = "podcast"
	VariantTutorial Variant = "tutorial"
)

func (v Variant) Valid() bool {
	return v == VariantPodcast || v == VariantTutorial
}

// Transcript is what the transcription collaborator returns. ID is the
// provider-side reference used by task services that read the transcript
// remotely; it is empty for local transcribers.
type Transcript struct {
	ID    string `json:"id,omitempty"`
	Text  string `json:"text"`
	Words []Word `json:"words,omitempty"`
}

// Word is a single token with millisecond offsets into the source media.
type Word struct {
	Text    string `json:"text"`
	StartMS int64  `json:"start_ms"`
	EndMS   int64  `json:"end_ms"`
}

// Descriptor is one candidate clip as described by the AI response.
type Descriptor struct {
	Timestamp    string  `json:"timestamp"`
	StartSeconds float64 `json:"start_seconds"`
	Title        string  `json:"title"`
	Summary      string  `json:"summary"`
	Technology   string  `json:"technology,omitempty"`
}

type BatchState string

const (
	StateIdle         BatchState = "idle"
	StateTranscribing BatchState = "transcribing"
	StateExtracting   BatchState = "extracting"
	StateValidating   BatchState = "validating"
	StateRendering    BatchState = "rendering"
	StateDone         BatchState = "done"
	StateError        BatchState = "error"
)

type ClipResult struct {
	Index         int        `json:"index"`
	Descriptor    Descriptor `json:"descriptor"`
	File          string     `json:"file,omitempty"`
	SuggestedName string     `json:"suggested_name,omitempty"`
	Excerpt       string     `json:"excerpt,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// BatchResult is the complete outcome of one run over a single media file.
// It is built once by the orchestrator and never mutated afterwards.
type BatchResult struct {
	ID              string       `json:"id"`
	Input           string       `json:"input"`
	Variant         Variant      `json:"variant"`
	State           BatchState   `json:"state"`
	MediaDuration   float64      `json:"media_duration_sec"`
	ClipDuration    float64      `json:"clip_duration_sec"`
	RenderAvailable bool         `json:"render_available"`
	Transcript      string       `json:"transcript,omitempty"`
	AIResponse      string       `json:"ai_response,omitempty"`
	Strategy        string       `json:"strategy,omitempty"`
	Clips           []ClipResult `json:"clips"`
	Warnings        []string     `json:"warnings,omitempty"`
	Errors          []string     `json:"errors,omitempty"`
	Failure         string       `json:"failure,omitempty"`
	Remediation     string       `json:"remediation,omitempty"`
}
