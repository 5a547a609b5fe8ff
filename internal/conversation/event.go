package conversation

import (
	"encoding/json"
	"strings"

	pkgerrors "github.com/rushikeshnagarkar/balutedaar-app/pkg/errors"
)

// Kind discriminates the shapes an inbound message can take. The webhook
// payload is decoded into a tagged event exactly once at the boundary.
type Kind string

const (
	KindText         Kind = "text"
	KindButtonReply  Kind = "button_reply"
	KindListReply    Kind = "list_reply"
	KindCatalogOrder Kind = "order"
	KindUnknown      Kind = "unknown"
)

// OrderLine is one selected product in a catalog-order event.
type OrderLine struct {
	ComboID  string
	Quantity int
}

// Event is one inbound message, normalized from the provider payload.
type Event struct {
	Kind        Kind
	From        string
	MessageID   string
	ProfileName string
	Text        string
	ReplyID     string
	Lines       []OrderLine
}

type webhookPayload struct {
	Statuses []json.RawMessage `json:"statuses"`
	Contacts []struct {
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
	} `json:"contacts"`
	Messages []struct {
		ID   string `json:"id"`
		From string `json:"from"`
		Type string `json:"type"`
		Text struct {
			Body string `json:"body"`
		} `json:"text"`
		Interactive struct {
			ButtonReply *struct {
				ID string `json:"id"`
			} `json:"button_reply"`
			ListReply *struct {
				ID string `json:"id"`
			} `json:"list_reply"`
		} `json:"interactive"`
		Order struct {
			ProductItems []struct {
				ProductRetailerID string `json:"product_retailer_id"`
				Quantity          int    `json:"quantity"`
			} `json:"product_items"`
		} `json:"order"`
	} `json:"messages"`
}

// DecodeEvents parses a webhook body. Status-update payloads yield zero
// events and no error; payloads without messages are a validation error.
// Unrecognized message types decode to KindUnknown and are skipped upstream.
func DecodeEvents(body []byte) ([]Event, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed webhook payload")
	}
	if len(payload.Statuses) > 0 {
		return nil, nil
	}
	if len(payload.Messages) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook payload has no messages")
	}

	profileName := ""
	if len(payload.Contacts) > 0 {
		profileName = strings.TrimSpace(payload.Contacts[0].Profile.Name)
	}

	events := make([]Event, 0, len(payload.Messages))
	for _, msg := range payload.Messages {
		ev := Event{
			From:        strings.TrimSpace(msg.From),
			MessageID:   msg.ID,
			ProfileName: profileName,
			Kind:        KindUnknown,
		}
		switch msg.Type {
		case "text":
			ev.Kind = KindText
			ev.Text = msg.Text.Body
		case "interactive":
			switch {
			case msg.Interactive.ButtonReply != nil:
				ev.Kind = KindButtonReply
				ev.ReplyID = msg.Interactive.ButtonReply.ID
			case msg.Interactive.ListReply != nil:
				ev.Kind = KindListReply
				ev.ReplyID = msg.Interactive.ListReply.ID
			}
		case "order":
			ev.Kind = KindCatalogOrder
			for _, item := range msg.Order.ProductItems {
				qty := item.Quantity
				if qty <= 0 {
					qty = 1
				}
				ev.Lines = append(ev.Lines, OrderLine{
					ComboID:  strings.TrimSpace(item.ProductRetailerID),
					Quantity: qty,
				})
			}
		}
		events = append(events, ev)
	}
	return events, nil
}

// ReplyInput is the text-or-reply-id a state handler dispatches on.
func (e Event) ReplyInput() string {
	if e.Kind == KindButtonReply || e.Kind == KindListReply {
		return e.ReplyID
	}
	return strings.TrimSpace(e.Text)
}
