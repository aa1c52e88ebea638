package pipeline

import "bytes"

// DetectFormat inspects the leading bytes of an audio payload and reports the
// container it carries. Unknown payloads report "bin".
func DetectFormat(data []byte) string {
	if len(data) < 4 {
		return "bin"
	}

	switch {
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return "wav"
	case bytes.Equal(data[0:4], []byte("OggS")):
		return "ogg"
	case bytes.Equal(data[0:4], []byte("fLaC")):
		return "flac"
	case bytes.Equal(data[0:4], []byte{0x1A, 0x45, 0xDF, 0xA3}):
		// EBML header shared by webm and mkv; the transcription API accepts webm.
		return "webm"
	case len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")):
		return "m4a"
	case bytes.Equal(data[0:4], []byte("caff")):
		return "caf"
	case bytes.Equal(data[0:3], []byte("ID3")):
		return "mp3"
	case data[0] == 0xFF && (data[1]&0xE0) == 0xE0:
		// Bare MPEG audio frame sync.
		return "mp3"
	default:
		return "bin"
	}
}

// compatibleFormats are containers the transcription capability accepts
// directly; anything else goes through the audio-compatibility transform.
var compatibleFormats = map[string]struct{}{
	"wav":  {},
	"mp3":  {},
	"webm": {},
	"m4a":  {},
	"mp4":  {},
	"ogg":  {},
	"flac": {},
}

// FormatCompatible reports whether the detected container can be submitted to
// the transcription capability without transformation.
func FormatCompatible(format string) bool {
	_, ok := compatibleFormats[format]
	return ok
}
