package conversation

import (
	"testing"

	pkgerrors "github.com/rushikeshnagarkar/balutedaar-app/pkg/errors"
)

func TestDecodeEventsText(t *testing.T) {
	t.Parallel()

	body := []byte(`{
		"contacts": [{"profile": {"name": "Rushikesh"}}],
		"messages": [{"id": "wamid.1", "from": "919876500001", "type": "text", "text": {"body": " hi "}}]
	}`)

	events, err := DecodeEvents(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Kind != KindText || ev.From != "919876500001" || ev.MessageID != "wamid.1" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.ProfileName != "Rushikesh" {
		t.Fatalf("profile name = %q", ev.ProfileName)
	}
	if ev.ReplyInput() != "hi" {
		t.Fatalf("reply input = %q, want trimmed text", ev.ReplyInput())
	}
}

func TestDecodeEventsListReply(t *testing.T) {
	t.Parallel()

	body := []byte(`{
		"messages": [{"id": "wamid.2", "from": "919876500001", "type": "interactive",
			"interactive": {"list_reply": {"id": "5"}}}]
	}`)

	events, err := DecodeEvents(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if events[0].Kind != KindListReply || events[0].ReplyInput() != "5" {
		t.Fatalf("unexpected event: %+v", events[0])
	}
}

func TestDecodeEventsCatalogOrder(t *testing.T) {
	t.Parallel()

	body := []byte(`{
		"messages": [{"id": "wamid.3", "from": "919876500001", "type": "order",
			"order": {"product_items": [
				{"product_retailer_id": "A-9011", "quantity": 2},
				{"product_retailer_id": "B-9011", "quantity": 0}
			]}}]
	}`)

	events, err := DecodeEvents(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	ev := events[0]
	if ev.Kind != KindCatalogOrder || len(ev.Lines) != 2 {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Lines[0].Quantity != 2 {
		t.Fatalf("line 0 quantity = %d", ev.Lines[0].Quantity)
	}
	if ev.Lines[1].Quantity != 1 {
		t.Fatalf("zero quantity must default to 1, got %d", ev.Lines[1].Quantity)
	}
}

func TestDecodeEventsStatusUpdate(t *testing.T) {
	t.Parallel()

	events, err := DecodeEvents([]byte(`{"statuses": [{"id": "wamid.4", "status": "delivered"}]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if events != nil {
		t.Fatalf("status payload must yield no events, got %+v", events)
	}
}

func TestDecodeEventsRejectsJunk(t *testing.T) {
	t.Parallel()

	if _, err := DecodeEvents([]byte(`{not json`)); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("malformed body: expected validation error, got %v", err)
	}
	if _, err := DecodeEvents([]byte(`{}`)); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("empty payload: expected validation error, got %v", err)
	}
}

func TestDecodeEventsUnknownType(t *testing.T) {
	t.Parallel()

	body := []byte(`{"messages": [{"id": "wamid.5", "from": "919876500001", "type": "image"}]}`)
	events, err := DecodeEvents(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if events[0].Kind != KindUnknown {
		t.Fatalf("unexpected kind: %s", events[0].Kind)
	}
}
