package domain

import "time"

// MessageRole represents the sender of a message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// MessageType tags how a message is rendered by clients
type MessageType string

const (
	MessageTypeText       MessageType = "text"
	MessageTypeFile       MessageType = "file"
	MessageTypeReportCard MessageType = "report_card"
)

// Card references an archived analysis from a chat message
type Card struct {
	Type      AnalysisType   `json:"type"`
	Data      map[string]any `json:"data"`
	ArchiveID string         `json:"archiveId"`
}

// Message represents a single chat message inside a session
type Message struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Type      MessageType `json:"type"`
	CardData  *Card       `json:"cardData"`
	Timestamp time.Time   `json:"timestamp"`
}
