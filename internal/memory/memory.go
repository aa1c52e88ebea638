package memory

import (
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
)

// Memory is the durable unit: one captured-and-structured voice note.
type Memory struct {
	ID             string
	Title          string
	Category       string
	ActionItems    []string
	CompletedItems []int
	Mood           string
	Transcript     string
	CreatedAt      time.Time
	Pinned         bool
}

// New constructs a Memory with a fresh id and creation timestamp. Structured
// fields come from the processing pipeline; pin state and completions start
// empty.
func New(title, category string, actionItems []string, mood, transcript string) Memory {
	if actionItems == nil {
		actionItems = []string{}
	}
	return Memory{
		ID:             uuid.NewString(),
		Title:          title,
		Category:       category,
		ActionItems:    actionItems,
		CompletedItems: []int{},
		Mood:           mood,
		Transcript:     transcript,
		CreatedAt:      time.Now().UTC(),
	}
}

// record is the wire shape shared by the file and sqlite collaborators.
// createdAt travels as epoch milliseconds.
type record struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Category       string   `json:"category"`
	ActionItems    []string `json:"action_items"`
	CompletedItems []int    `json:"completed_items"`
	Mood           string   `json:"mood"`
	Transcript     string   `json:"transcript"`
	CreatedAt      float64  `json:"createdAt"`
	Pinned         bool     `json:"pinned"`
}

// MarshalJSON encodes the memory in its durable wire shape.
func (m Memory) MarshalJSON() ([]byte, error) {
	rec := record{
		ID:             m.ID,
		Title:          m.Title,
		Category:       m.Category,
		ActionItems:    m.ActionItems,
		CompletedItems: m.CompletedItems,
		Mood:           m.Mood,
		Transcript:     m.Transcript,
		CreatedAt:      float64(m.CreatedAt.UnixMilli()),
		Pinned:         m.Pinned,
	}
	if rec.ActionItems == nil {
		rec.ActionItems = []string{}
	}
	if rec.CompletedItems == nil {
		rec.CompletedItems = []int{}
	}
	return json.Marshal(rec)
}

// UnmarshalJSON decodes the durable wire shape. A record missing
// completed_items decodes to an empty list; completion indices are kept as
// stored, stale values from a since-shrunk action list included.
func (m *Memory) UnmarshalJSON(data []byte) error {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	m.ID = rec.ID
	m.Title = rec.Title
	m.Category = rec.Category
	m.ActionItems = rec.ActionItems
	if m.ActionItems == nil {
		m.ActionItems = []string{}
	}
	m.CompletedItems = rec.CompletedItems
	if m.CompletedItems == nil {
		m.CompletedItems = []int{}
	}
	m.Mood = rec.Mood
	m.Transcript = rec.Transcript
	m.CreatedAt = time.UnixMilli(int64(math.Round(rec.CreatedAt))).UTC()
	m.Pinned = rec.Pinned
	return nil
}
