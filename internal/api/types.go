// Package api defines the wire contract between the murmur client and the
// processing server.
package api

// ProcessMemoryRequest is the body of POST /api/process-memory.
type ProcessMemoryRequest struct {
	Audio string `json:"audio"`
}

// ProcessMemoryResponse is the success body returned by the processing
// endpoint.
type ProcessMemoryResponse struct {
	Transcript  string   `json:"transcript"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	ActionItems []string `json:"action_items"`
	Mood        string   `json:"mood"`
}

// ErrorResponse is the failure body returned by the processing endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}
