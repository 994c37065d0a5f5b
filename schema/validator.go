package payloadschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed social_thread.schema.json
var socialThreadSchemaJSON string

// SocialThread is one external social-content payload as delivered inside
// an ingestion event's extra bag.
type SocialThread struct {
	ID          string       `json:"id"`
	Handle      string       `json:"handle,omitempty"`
	Text        string       `json:"text,omitempty"`
	TextHTML    string       `json:"text_html,omitempty"`
	Subtype     string       `json:"subtype,omitempty"`
	VideoID     string       `json:"video_id,omitempty"`
	Image       string       `json:"image,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	ThreadItems []ThreadItem `json:"thread_items,omitempty"`
	Repost      *Reference   `json:"repost,omitempty"`
	Quote       *Reference   `json:"quote,omitempty"`
	RepostID    string       `json:"repost_id,omitempty"`
	RepostURL   string       `json:"repost_url,omitempty"`
	QuoteID     string       `json:"quote_id,omitempty"`
	QuoteURL    string       `json:"quote_url,omitempty"`
}

type Attachment struct {
	Type       string `json:"type"`
	ID         string `json:"id,omitempty"`
	URL        string `json:"url,omitempty"`
	PreviewURL string `json:"preview_url,omitempty"`
}

type ThreadItem struct {
	Text     string `json:"text,omitempty"`
	TextHTML string `json:"text_html,omitempty"`
}

// Reference is a nested quote/repost descriptor.
type Reference struct {
	ID     string `json:"id,omitempty"`
	URL    string `json:"url,omitempty"`
	Handle string `json:"handle,omitempty"`
	Title  string `json:"title,omitempty"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ValidateSocialThreadPayload checks the payload against the embedded
// schema and decodes it. A schema violation is a terminal validation
// failure; the event is rejected before any write.
func ValidateSocialThreadPayload(payload json.RawMessage) (*SocialThread, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize payload JSON: %w", err)
	}

	var thread SocialThread
	if err := json.Unmarshal(normalized, &thread); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	if strings.TrimSpace(thread.ID) == "" {
		return nil, fmt.Errorf("id must not be empty")
	}

	return &thread, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("social_thread.schema.json", strings.NewReader(socialThreadSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("social_thread.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}
