package queue

import "encoding/json"

// CurrentVersion is the message schema version written by this build.
const CurrentVersion = 1

// Message is an indexing job reference. The file bytes stay in the blob
// store; consumers reload them by StorageKey.
type Message struct {
	DocumentID  string `json:"documentId"`
	UserID      string `json:"userId"`
	DatasetID   string `json:"datasetId"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	StorageKey  string `json:"storageKey"`
	RequestID   string `json:"requestId,omitempty"`
	EnqueuedAt  string `json:"enqueuedAt"`
	Version     int    `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
