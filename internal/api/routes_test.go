package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/forPelevin/clipcut/internal/pipeline"
	"github.com/forPelevin/clipcut/internal/types"
	"github.com/forPelevin/clipcut/internal/usecase"
)

type fakeRunner struct {
	mu      sync.Mutex
	reqs    []pipeline.Request
	existed []bool
	out     pipeline.Output
	err     error
	block   chan struct{}
	started chan struct{}
}

func (f *fakeRunner) Run(_ context.Context, req pipeline.Request) (pipeline.Output, error) {
	_, statErr := os.Stat(req.InputPath)
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.existed = append(f.existed, statErr == nil)
	f.mu.Unlock()
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	return f.out, f.err
}

func multipartBody(t *testing.T, filename string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write([]byte("fake media"))
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func newTestRouter(t *testing.T, runner BatchRunner) http.Handler {
	t.Helper()
	return NewRouter(ServerConfig{
		UploadDir: t.TempDir(),
		Runner:    runner,
		Logger:    zerolog.Nop(),
		StartTime: time.Now(),
	})
}

func post(t *testing.T, h http.Handler, filename string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, filename, fields)
	req := httptest.NewRequest(http.MethodPost, "/v1/batches", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t, &fakeRunner{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Status != "ok" {
		t.Fatalf("unexpected body %q (%v)", rec.Body.String(), err)
	}
}

func TestCreateBatch(t *testing.T) {
	runner := &fakeRunner{out: pipeline.Output{Result: types.BatchResult{ID: "b1", State: types.StateDone}}}
	rec := post(t, newTestRouter(t, runner), "talk.MP4", map[string]string{
		"clips":    "4",
		"duration": "90",
		"variant":  "podcast",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res types.BatchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil || res.ID != "b1" {
		t.Fatalf("unexpected body %q (%v)", rec.Body.String(), err)
	}

	if len(runner.reqs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runner.reqs))
	}
	got := runner.reqs[0]
	if got.ClipsN != 4 || got.ClipDuration != 90*time.Second || got.Variant != types.VariantPodcast {
		t.Fatalf("unexpected request: %+v", got)
	}
	if !runner.existed[0] {
		t.Fatalf("upload must exist while the batch runs")
	}
	if _, err := os.Stat(got.InputPath); !os.IsNotExist(err) {
		t.Fatalf("upload must be removed afterwards, stat err=%v", err)
	}
}

func TestCreateBatch_BadRequests(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		fields   map[string]string
		want     int
	}{
		{"no file", "", nil, http.StatusBadRequest},
		{"bad clips", "a.mp4", map[string]string{"clips": "many"}, http.StatusBadRequest},
		{"bad duration", "a.mp4", map[string]string{"duration": "1m"}, http.StatusBadRequest},
		{"bad variant", "a.mp4", map[string]string{"variant": "vlog"}, http.StatusBadRequest},
		{"not media", "a.txt", nil, http.StatusUnsupportedMediaType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			rec := post(t, newTestRouter(t, runner), tt.filename, tt.fields)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
			if len(runner.reqs) != 0 {
				t.Fatalf("runner must not be called")
			}
		})
	}
}

func TestCreateBatch_Failures(t *testing.T) {
	tests := []struct {
		name string
		out  pipeline.Output
		err  error
		want int
	}{
		{
			name: "service failure",
			out:  pipeline.Output{Result: types.BatchResult{State: types.StateError, Remediation: "check key"}},
			err:  &usecase.ServiceError{Service: "transcription", Err: errors.New("401")},
			want: http.StatusBadGateway,
		},
		{
			name: "rejected request",
			err:  fmt.Errorf("%w: clips must be between 1 and 5, got 9", pipeline.ErrInvalidRequest),
			want: http.StatusBadRequest,
		},
		{
			name: "server side failure",
			err:  errors.New("mkdir out/run: permission denied"),
			want: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, newTestRouter(t, &fakeRunner{out: tt.out, err: tt.err}), "a.mp4", nil)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCreateBatch_SingleActiveBatch(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{}), started: make(chan struct{})}
	h := newTestRouter(t, runner)

	body, ct := multipartBody(t, "a.mp4", nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/batches", body)
	req.Header.Set("Content-Type", ct)
	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		first <- rec
	}()
	<-runner.started

	rec := post(t, h, "b.mp4", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	close(runner.block)
	if rec := <-first; rec.Code != http.StatusOK {
		t.Fatalf("expected first batch to finish with 200, got %d", rec.Code)
	}
}
