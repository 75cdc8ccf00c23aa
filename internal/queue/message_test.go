package queue

import (
	"encoding/json"
	"testing"
)

func TestEncodeMessageUsesCamelCaseKeys(t *testing.T) {
	payload, err := EncodeMessage(Message{
		DocumentID: "doc-1",
		UserID:     "user-1",
		DatasetID:  "ds-1",
		StorageKey: "abc/def.pdf",
		Version:    CurrentVersion,
	})
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"documentId", "userId", "datasetId", "storageKey", "version"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("missing key %s in %s", key, payload)
		}
	}
	if _, ok := raw["requestId"]; ok {
		t.Fatalf("expected empty requestId to be omitted")
	}
}

func TestDecodeMessageRejectsInvalidJSON(t *testing.T) {
	if _, err := DecodeMessage([]byte("{bad")); err == nil {
		t.Fatalf("expected decode error")
	}
}
