package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/bookkeeper-io/bookkeeper/constants"
)

// BuildDocumentJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We pass it to the provider as an output constraint and also
// use it locally to validate what comes back.
func BuildDocumentJSONSchema(docType constants.DocumentType) map[string]any {
	company := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"name":    map[string]any{"type": "string"},
			"address": map[string]any{"type": "string"},
			"phone":   map[string]any{"type": "string"},
			"email":   map[string]any{"type": "string"},
			"tax_id":  map[string]any{"type": "string"},
		},
	}
	lineItem := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"description": map[string]any{"type": "string"},
			"quantity":    map[string]any{"type": "number"},
			"unit_price":  map[string]any{"type": "number"},
			"total_price": map[string]any{"type": "number"},
		},
	}

	props := map[string]any{
		"document_type":   map[string]any{"type": "string", "enum": []string{string(constants.Invoice), string(constants.Receipt), string(constants.Other)}},
		"document_number": map[string]any{"type": "string"},
		"date":            map[string]any{"type": "string"},
		"due_date":        map[string]any{"type": "string"},
		"from_company":    company,
		"to_company":      company,
		"line_items":      map[string]any{"type": "array", "items": lineItem},
		"subtotal":        map[string]any{"type": "number"},
		"tax_amount":      map[string]any{"type": "number"},
		"total_amount":    map[string]any{"type": "number"},
		"payment_method":  map[string]any{"type": "string"},
		"currency":        map[string]any{"type": "string", "minLength": 3, "maxLength": 3},
	}
	required := []string{"document_type"}

	schema := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
	if docType == constants.Receipt {
		// Receipts have no payment deadline.
		delete(props, "due_date")
	}
	return schema
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
