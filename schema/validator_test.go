package payloadschema

import (
	"encoding/json"
	"testing"
)

func TestValidateSocialThreadPayload_Valid(t *testing.T) {
	payload := json.RawMessage(`{
		"id": "1890000000000000001",
		"handle": "gopherdev",
		"text": "shipping a new release",
		"subtype": "tweet",
		"attachments": [{"type": "photo", "url": "https://pbs.example.com/media/abc.jpg"}]
	}`)

	thread, err := ValidateSocialThreadPayload(payload)
	if err != nil {
		t.Fatalf("expected payload to be valid, got error: %v", err)
	}
	if thread.Handle != "gopherdev" {
		t.Fatalf("unexpected handle: %q", thread.Handle)
	}
	if len(thread.Attachments) != 1 || thread.Attachments[0].Type != "photo" {
		t.Fatalf("unexpected attachments: %+v", thread.Attachments)
	}
}

func TestValidateSocialThreadPayload_MissingID(t *testing.T) {
	payload := json.RawMessage(`{"handle": "gopherdev", "text": "no id here"}`)

	if _, err := ValidateSocialThreadPayload(payload); err == nil {
		t.Fatalf("expected validation to fail without id")
	}
}

func TestValidateSocialThreadPayload_BadSubtype(t *testing.T) {
	payload := json.RawMessage(`{"id": "1", "subtype": "livestream"}`)

	if _, err := ValidateSocialThreadPayload(payload); err == nil {
		t.Fatalf("expected validation to fail for unknown subtype")
	}
}

func TestValidateSocialThreadPayload_BadAttachmentType(t *testing.T) {
	payload := json.RawMessage(`{"id": "1", "attachments": [{"type": "audio"}]}`)

	if _, err := ValidateSocialThreadPayload(payload); err == nil {
		t.Fatalf("expected validation to fail for unknown attachment type")
	}
}

func TestValidateSocialThreadPayload_Empty(t *testing.T) {
	if _, err := ValidateSocialThreadPayload(json.RawMessage("   ")); err == nil {
		t.Fatalf("expected validation to fail for empty payload")
	}
}
