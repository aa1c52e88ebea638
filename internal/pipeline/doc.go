// Package pipeline implements the server-side transcription/structuring
// pipeline: decode and validate the audio payload, normalize its container,
// transcribe it with ordered model fallback, then extract structured memory
// fields with the same fallback discipline.
//
// Model unavailability is recovered locally by trying the next candidate and
// malformed structuring output is recovered via default substitution; every
// other failure surfaces as a single {status, message} pair via MapError.
package pipeline
