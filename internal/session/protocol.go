package session

import "encoding/json"

// Command names accepted by Handle
const (
	ActionPing     = "ping"
	ActionScan     = "scan"
	ActionClear    = "clearHighlights"
	ActionNext     = "jumpToNext"
	ActionPrevious = "jumpToPrevious"
)

// Request is one message on the command channel
type Request struct {
	Action     string          `json:"action"`
	VocabData  json.RawMessage `json:"vocabData,omitempty"`
	IsAutoScan bool            `json:"isAutoScan,omitempty"`
}

type PingResponse struct {
	Loaded bool `json:"loaded"`
}

type ScanResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	HighlightedCount int    `json:"highlightedCount"`
	Skipped          bool   `json:"skipped,omitempty"`
}

type ClearResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type NextResponse struct {
	Success      bool   `json:"success"`
	CurrentIndex int    `json:"currentIndex"`
	TotalCount   int    `json:"totalCount"`
	HasNext      bool   `json:"hasNext"`
	Message      string `json:"message"`
}

type PreviousResponse struct {
	Success      bool   `json:"success"`
	CurrentIndex int    `json:"currentIndex"`
	TotalCount   int    `json:"totalCount"`
	HasPrevious  bool   `json:"hasPrevious"`
	Message      string `json:"message"`
}

// FailureResponse is returned by any command that could not complete
type FailureResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
