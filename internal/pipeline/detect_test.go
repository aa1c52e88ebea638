package pipeline_test

import (
	"testing"

	"murmur/internal/pipeline"
)

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"wav", append([]byte("RIFF\x24\x00\x00\x00WAVE"), make([]byte, 8)...), "wav"},
		{"mp3 id3", []byte("ID3\x04\x00\x00\x00\x00\x00\x00"), "mp3"},
		{"mp3 frame sync", []byte{0xFF, 0xFB, 0x90, 0x00, 0x00, 0x00}, "mp3"},
		{"ogg", []byte("OggS\x00\x02\x00\x00"), "ogg"},
		{"flac", []byte("fLaC\x00\x00\x00\x22"), "flac"},
		{"webm", []byte{0x1A, 0x45, 0xDF, 0xA3, 0x9F, 0x42}, "webm"},
		{"m4a", []byte("\x00\x00\x00\x20ftypM4A \x00\x00"), "m4a"},
		{"caf", []byte("caff\x00\x01\x00\x00"), "caf"},
		{"unknown", []byte{0x00, 0x01, 0x02, 0x03, 0x04}, "bin"},
		{"too short", []byte{0x52}, "bin"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := pipeline.DetectFormat(tc.data); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestFormatCompatible(t *testing.T) {
	for _, format := range []string{"wav", "mp3", "webm", "m4a", "ogg", "flac"} {
		if !pipeline.FormatCompatible(format) {
			t.Fatalf("expected %s compatible", format)
		}
	}
	for _, format := range []string{"caf", "bin"} {
		if pipeline.FormatCompatible(format) {
			t.Fatalf("expected %s to require transformation", format)
		}
	}
}
