// Package openai wraps the OpenAI transcription and chat completion APIs used
// by the memory processing pipeline.
//
// Both entry points (Transcribe, Structure) walk an ordered candidate model
// list: a failure classified by ModelUnavailable moves to the next candidate,
// any other failure stops the walk immediately. StatusError carries the HTTP
// status and raw body so callers can map failures to client-facing responses.
package openai
