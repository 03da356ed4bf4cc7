// Package payloadschema validates imported deal-news payloads against the
// versioned JSON schema before they reach the database.
package payloadschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed deal_item.schema.json
var dealItemSchemaJSON string

type DealItem struct {
	PayloadVersion  string  `json:"payload_version"`
	Source          string  `json:"source"`
	Title           string  `json:"title"`
	Summary         *string `json:"summary,omitempty"`
	Content         *string `json:"content,omitempty"`
	SourceURL       *string `json:"source_url,omitempty"`
	Category        *string `json:"category,omitempty"`
	Language        *string `json:"language,omitempty"`
	EngagementScore *int    `json:"engagement_score,omitempty"`
	PublicationDate *string `json:"publication_date,omitempty"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

func ValidateDealItemPayload(payload json.RawMessage) (*DealItem, error) {
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

	var item DealItem
	if err := json.Unmarshal(normalized, &item); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := validateSemantics(&item); err != nil {
		return nil, err
	}

	return &item, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("deal_item.schema.json", strings.NewReader(dealItemSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("deal_item.schema.json")
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

func validateSemantics(item *DealItem) error {
	if item == nil {
		return fmt.Errorf("payload is nil")
	}

	if strings.TrimSpace(item.Source) == "" {
		return fmt.Errorf("source must not be empty")
	}
	if strings.TrimSpace(item.Title) == "" {
		return fmt.Errorf("title must not be empty")
	}
	if strings.TrimSpace(item.PayloadVersion) != "v1" {
		return fmt.Errorf("payload_version must be v1")
	}

	if item.SourceURL != nil {
		trimmed := strings.TrimSpace(*item.SourceURL)
		if trimmed == "" {
			return fmt.Errorf("source_url must not be empty")
		}
		if _, err := url.ParseRequestURI(trimmed); err != nil {
			return fmt.Errorf("source_url is not a valid URI: %w", err)
		}
	}
	if item.PublicationDate != nil {
		if _, err := time.Parse(time.RFC3339, strings.TrimSpace(*item.PublicationDate)); err != nil {
			return fmt.Errorf("publication_date must be RFC3339: %w", err)
		}
	}
	if item.EngagementScore != nil && *item.EngagementScore < 0 {
		return fmt.Errorf("engagement_score must be >= 0")
	}

	return nil
}
