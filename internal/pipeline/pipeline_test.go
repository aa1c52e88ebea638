package pipeline_test

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"murmur/internal/logging"
	"murmur/internal/pipeline"
	"murmur/internal/services"
)

type fakeTranscriber struct {
	transcript  string
	err         error
	credentials bool

	gotAudio      []byte
	gotFormat     string
	gotCandidates []string
	calls         int
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audio []byte, format string, candidates []string, _ *slog.Logger) (string, error) {
	f.calls++
	f.gotAudio = audio
	f.gotFormat = format
	f.gotCandidates = candidates
	return f.transcript, f.err
}

func (f *fakeTranscriber) HasCredentials() bool { return f.credentials }

type fakeStructurer struct {
	content string
	err     error

	gotPrompt     string
	gotTranscript string
	calls         int
}

func (f *fakeStructurer) Structure(_ context.Context, systemPrompt, transcript string, _ []string, _ *slog.Logger) (string, error) {
	f.calls++
	f.gotPrompt = systemPrompt
	f.gotTranscript = transcript
	return f.content, f.err
}

type fakeTranscoder struct {
	output []byte
	err    error
	calls  int
}

func (f *fakeTranscoder) Transform(_ context.Context, _ []byte, _ string) ([]byte, string, error) {
	f.calls++
	if f.err != nil {
		return nil, "", f.err
	}
	return f.output, "wav", nil
}

func wavPayload() []byte {
	return append([]byte("RIFF\x00\x00\x00\x00WAVE"), make([]byte, 64)...)
}

func newService(t *fakeTranscriber, s *fakeStructurer, tc *fakeTranscoder) *pipeline.Service {
	return pipeline.NewServiceWith(t, s, tc,
		[]string{"gpt-4o-mini-transcribe", "whisper-1"},
		[]string{"gpt-5-mini", "gpt-4o-mini"},
		logging.NewNop())
}

func TestProcessHappyPath(t *testing.T) {
	transcriber := &fakeTranscriber{
		credentials: true,
		transcript:  "buy milk and call the dentist",
	}
	structurer := &fakeStructurer{
		content: `{"title":"Errands","category":"Personal","action_items":["Buy milk","Call dentist"],"mood":"focused"}`,
	}
	transcoder := &fakeTranscoder{}
	svc := newService(transcriber, structurer, transcoder)

	payload := wavPayload()
	resp, procErr := svc.Process(context.Background(), base64.StdEncoding.EncodeToString(payload))
	if procErr != nil {
		t.Fatalf("unexpected error: %v", procErr)
	}
	if resp.Transcript != transcriber.transcript {
		t.Fatalf("transcript mismatch: %q", resp.Transcript)
	}
	if resp.Title != "Errands" || resp.Category != "Personal" || resp.Mood != "focused" {
		t.Fatalf("unexpected structured fields: %+v", resp)
	}
	if !reflect.DeepEqual(resp.ActionItems, []string{"Buy milk", "Call dentist"}) {
		t.Fatalf("unexpected action items: %v", resp.ActionItems)
	}
	if transcoder.calls != 0 {
		t.Fatal("wav input should not be transcoded")
	}
	if transcriber.gotFormat != "wav" {
		t.Fatalf("expected wav format, got %q", transcriber.gotFormat)
	}
	if !reflect.DeepEqual(transcriber.gotCandidates, []string{"gpt-4o-mini-transcribe", "whisper-1"}) {
		t.Fatalf("unexpected transcription candidates: %v", transcriber.gotCandidates)
	}
	if structurer.gotTranscript != transcriber.transcript {
		t.Fatalf("structurer received %q", structurer.gotTranscript)
	}
	if !strings.Contains(structurer.gotPrompt, "action_items") {
		t.Fatal("structuring prompt should describe the expected JSON shape")
	}
}

func TestProcessTranscodesUnknownFormats(t *testing.T) {
	transcriber := &fakeTranscriber{credentials: true, transcript: "hello"}
	structurer := &fakeStructurer{content: `{"title":"Note"}`}
	transcoder := &fakeTranscoder{output: wavPayload()}
	svc := newService(transcriber, structurer, transcoder)

	opaque := append([]byte{0x00, 0x01, 0x02, 0x03}, make([]byte, 32)...)
	if _, procErr := svc.Process(context.Background(), base64.StdEncoding.EncodeToString(opaque)); procErr != nil {
		t.Fatalf("unexpected error: %v", procErr)
	}
	if transcoder.calls != 1 {
		t.Fatalf("expected one transcode call, got %d", transcoder.calls)
	}
	if transcriber.gotFormat != "wav" {
		t.Fatalf("transcriber should receive transcoded wav, got %q", transcriber.gotFormat)
	}
}

func TestProcessMissingCredentials(t *testing.T) {
	svc := newService(&fakeTranscriber{}, &fakeStructurer{}, &fakeTranscoder{})

	_, procErr := svc.Process(context.Background(), base64.StdEncoding.EncodeToString(wavPayload()))
	if procErr == nil || procErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %+v", procErr)
	}
	if !strings.Contains(procErr.Message, "API key") {
		t.Fatalf("expected credential message, got %q", procErr.Message)
	}
	if !errors.Is(procErr, services.ErrConfiguration) {
		t.Fatal("expected configuration classification")
	}
}

func TestProcessValidatesPayload(t *testing.T) {
	cases := []struct {
		name       string
		audio      string
		wantStatus int
		wantMarker error
	}{
		{"empty", "", http.StatusBadRequest, services.ErrValidation},
		{"invalid base64", "not-base64!!!", http.StatusBadRequest, services.ErrValidation},
		{"decodes to nothing", base64.StdEncoding.EncodeToString(nil), http.StatusBadRequest, services.ErrValidation},
		{"oversized", base64.StdEncoding.EncodeToString(make([]byte, pipeline.MaxDecodedBytes+1)), http.StatusRequestEntityTooLarge, services.ErrTooLarge},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			transcriber := &fakeTranscriber{credentials: true}
			svc := newService(transcriber, &fakeStructurer{}, &fakeTranscoder{})

			_, procErr := svc.Process(context.Background(), tc.audio)
			if procErr == nil || procErr.Status != tc.wantStatus {
				t.Fatalf("expected status %d, got %+v", tc.wantStatus, procErr)
			}
			if !errors.Is(procErr, tc.wantMarker) {
				t.Fatalf("expected %v classification, got %v", tc.wantMarker, procErr)
			}
			if transcriber.calls != 0 {
				t.Fatal("validation failures must not reach transcription")
			}
		})
	}
}

func TestProcessEmptyTranscriptIsBadRequest(t *testing.T) {
	transcriber := &fakeTranscriber{credentials: true, transcript: "   \n "}
	structurer := &fakeStructurer{}
	svc := newService(transcriber, structurer, &fakeTranscoder{})

	_, procErr := svc.Process(context.Background(), base64.StdEncoding.EncodeToString(wavPayload()))
	if procErr == nil || procErr.Status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %+v", procErr)
	}
	if !errors.Is(procErr, services.ErrValidation) {
		t.Fatal("expected validation classification")
	}
	if structurer.calls != 0 {
		t.Fatal("empty transcript must not reach structuring")
	}
}

func TestProcessSubstitutesDefaultsForUnparsableStructure(t *testing.T) {
	transcriber := &fakeTranscriber{credentials: true, transcript: "a thought"}
	structurer := &fakeStructurer{content: "this is not json at all"}
	svc := newService(transcriber, structurer, &fakeTranscoder{})

	resp, procErr := svc.Process(context.Background(), base64.StdEncoding.EncodeToString(wavPayload()))
	if procErr != nil {
		t.Fatalf("unexpected error: %v", procErr)
	}
	if resp.Title != "Untitled Memory" || resp.Category != "Other" || resp.Mood != "neutral" {
		t.Fatalf("expected defaults, got %+v", resp)
	}
	if resp.ActionItems == nil || len(resp.ActionItems) != 0 {
		t.Fatalf("expected empty action items, got %v", resp.ActionItems)
	}
	if resp.Transcript != "a thought" {
		t.Fatal("transcript must survive structuring fallback")
	}
}

func TestProcessBackfillsPartialStructure(t *testing.T) {
	transcriber := &fakeTranscriber{credentials: true, transcript: "plan the trip"}
	structurer := &fakeStructurer{content: `{"title":"Trip planning","category":"travel"}`}
	svc := newService(transcriber, structurer, &fakeTranscoder{})

	resp, procErr := svc.Process(context.Background(), base64.StdEncoding.EncodeToString(wavPayload()))
	if procErr != nil {
		t.Fatalf("unexpected error: %v", procErr)
	}
	if resp.Title != "Trip planning" {
		t.Fatalf("parsed title should be kept, got %q", resp.Title)
	}
	if resp.Category != "Travel" {
		t.Fatalf("category should normalize to canonical casing, got %q", resp.Category)
	}
	if resp.Mood != "neutral" {
		t.Fatalf("missing mood should default, got %q", resp.Mood)
	}
	if resp.ActionItems == nil || len(resp.ActionItems) != 0 {
		t.Fatalf("missing action items should default to empty, got %v", resp.ActionItems)
	}
}

func TestProcessMapsTranscriberFailure(t *testing.T) {
	transcriber := &fakeTranscriber{
		credentials: true,
		err:         contextError("dial tcp 10.0.0.1:443: connection refused"),
	}
	svc := newService(transcriber, &fakeStructurer{}, &fakeTranscoder{})

	_, procErr := svc.Process(context.Background(), base64.StdEncoding.EncodeToString(wavPayload()))
	if procErr == nil || procErr.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %+v", procErr)
	}
}

type contextError string

func (e contextError) Error() string { return string(e) }
