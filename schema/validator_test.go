package payloadschema

import (
	"encoding/json"
	"testing"
)

func TestValidateDealItemPayloadAccepts(t *testing.T) {
	t.Parallel()

	payload := json.RawMessage(`{
		"payload_version": "v1",
		"source": "PR Newswire",
		"title": "Apollo closes $500M credit facility",
		"summary": "Apollo Global Management closed a new facility.",
		"source_url": "https://www.prnewswire.com/release",
		"language": "en",
		"engagement_score": 42,
		"publication_date": "2026-02-20T09:00:00Z"
	}`)

	item, err := ValidateDealItemPayload(payload)
	if err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}
	if item.Source != "PR Newswire" || item.Title != "Apollo closes $500M credit facility" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.EngagementScore == nil || *item.EngagementScore != 42 {
		t.Fatalf("engagement_score round trip failed: %+v", item.EngagementScore)
	}
}

func TestValidateDealItemPayloadMinimal(t *testing.T) {
	t.Parallel()

	payload := json.RawMessage(`{"payload_version":"v1","source":"s","title":"t"}`)
	item, err := ValidateDealItemPayload(payload)
	if err != nil {
		t.Fatalf("minimal payload rejected: %v", err)
	}
	if item.Summary != nil || item.SourceURL != nil || item.PublicationDate != nil {
		t.Fatalf("optional fields should stay nil: %+v", item)
	}
}

func TestValidateDealItemPayloadRejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		payload string
	}{
		{name: "empty", payload: ``},
		{name: "not json", payload: `{`},
		{name: "trailing content", payload: `{"payload_version":"v1","source":"s","title":"t"} extra`},
		{name: "missing title", payload: `{"payload_version":"v1","source":"s"}`},
		{name: "missing source", payload: `{"payload_version":"v1","title":"t"}`},
		{name: "wrong version", payload: `{"payload_version":"v2","source":"s","title":"t"}`},
		{name: "unknown field", payload: `{"payload_version":"v1","source":"s","title":"t","bogus":1}`},
		{name: "blank title", payload: `{"payload_version":"v1","source":"s","title":"   "}`},
		{name: "bad language code", payload: `{"payload_version":"v1","source":"s","title":"t","language":"english"}`},
		{name: "negative engagement", payload: `{"payload_version":"v1","source":"s","title":"t","engagement_score":-1}`},
		{name: "bad url", payload: `{"payload_version":"v1","source":"s","title":"t","source_url":"not a url"}`},
		{name: "bad date", payload: `{"payload_version":"v1","source":"s","title":"t","publication_date":"02/20/2026"}`},
		{name: "wrong type", payload: `{"payload_version":"v1","source":"s","title":12}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := ValidateDealItemPayload(json.RawMessage(tc.payload)); err == nil {
				t.Fatalf("payload %q should be rejected", tc.payload)
			}
		})
	}
}
