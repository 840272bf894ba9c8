package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matiasleandrokruk/netsuite-mcp/internal/domain/schema"
)

func customerPayload(p schema.Bundle) any {
	return map[string]any{
		"companyName": p.String("company_name"),
		"email":       p.String("email"),
		"subsidiary":  map[string]any{"id": p.String("subsidiary")},
	}
}

func salesOrderPayload(p schema.Bundle) any {
	return map[string]any{
		"entity": map[string]any{"id": p.String("customer_id")},
		"item": map[string]any{
			"items": []any{
				map[string]any{
					"item":     map[string]any{"id": p.String("item_id")},
					"quantity": p.Int("quantity"),
				},
			},
		},
	}
}

func invoicePayload(p schema.Bundle) any {
	return map[string]any{
		"createdFrom": map[string]any{"id": p.String("sales_order_id")},
		"total":       p.Float("amount"),
	}
}

func rawPayload(p schema.Bundle) any {
	return p.Object("payload")
}

// customerSearchPayload builds a LIKE query over company name and email.
// Single quotes in the term are doubled so it stays one string literal.
func customerSearchPayload(p schema.Bundle) any {
	term := strings.ReplaceAll(p.String("query"), "'", "''")
	q := fmt.Sprintf(
		"SELECT id, companyName, email FROM customer WHERE companyName LIKE '%%%s%%' OR email LIKE '%%%s%%'",
		term, term,
	)
	return suiteQL(q, p)
}

func queryPayload(p schema.Bundle) any {
	return suiteQL(p.String("query"), p)
}

func suiteQL(q string, p schema.Bundle) map[string]any {
	return map[string]any{
		"q":      q,
		"limit":  p.Int("limit"),
		"offset": p.Int("offset"),
	}
}

// reshapeListing normalizes a listing response to {items, totalResults}.
// Missing items become an empty list; a missing or invalid totalResults
// becomes the item count.
func reshapeListing(raw json.RawMessage) (json.RawMessage, error) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: listing is not an object", ErrMalformedResponse)
	}

	items := []json.RawMessage{}
	if v, ok := body["items"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &items); err != nil {
			return nil, fmt.Errorf("%w: items is not a list", ErrMalformedResponse)
		}
	}

	total := int64(len(items))
	if v, ok := body["totalResults"]; ok {
		var n int64
		if err := json.Unmarshal(v, &n); err == nil && n >= 0 {
			total = n
		}
	}

	return json.Marshal(struct {
		Items        []json.RawMessage `json:"items"`
		TotalResults int64             `json:"totalResults"`
	}{items, total})
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// checkRecordType looks record_type up in the metadata catalog, fetched
// through the full pipeline with the caller's credential.
func checkRecordType(ctx context.Context, inv Invoker, args map[string]any, p schema.Bundle) error {
	depArgs := map[string]any{}
	if key, ok := args[ArgAPIKey]; ok {
		depArgs[ArgAPIKey] = key
	}

	raw, err := inv.Invoke(ctx, BuiltinFetchMetadata, depArgs)
	if err != nil {
		return err
	}

	types, err := catalogTypes(raw)
	if err != nil {
		return err
	}

	recordType := p.String("record_type")
	for _, t := range types {
		if t == recordType {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownRecordType, recordType)
}

func catalogTypes(raw json.RawMessage) ([]string, error) {
	var catalog struct {
		Records []struct {
			Type string `json:"type"`
		} `json:"records"`
	}
	if err := json.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("%w: metadata catalog: %v", ErrMalformedResponse, err)
	}

	out := make([]string, 0, len(catalog.Records))
	for _, r := range catalog.Records {
		if r.Type != "" {
			out = append(out, r.Type)
		}
	}
	return out, nil
}

func checkQueryStatement(_ context.Context, _ Invoker, _ map[string]any, p schema.Bundle) error {
	return CheckStatement(p.String("query"))
}
