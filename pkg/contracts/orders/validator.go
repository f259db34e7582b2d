// Package orders validates inbound order-command payloads against the
// published message contract before they reach the ingestor.
package orders

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// commandSchema is the message contract for inbound order commands, kept in
// YAML alongside the channel description it is published with.
const commandSchema = `
title: OrderCommand
type: object
required:
  - commandId
  - orderId
  - facilityId
  - productCode
  - quantity
properties:
  commandId:
    type: string
    minLength: 1
  orderId:
    type: string
    minLength: 1
  facilityId:
    type: string
    minLength: 1
  productCode:
    type: string
    minLength: 1
  quantity:
    type: integer
    exclusiveMinimum: 0
  priority:
    type: string
    enum: [URGENT, HIGH, NORMAL]
  estimatedDeliveryDate:
    type: string
`

// CommandValidator validates order-command payloads against the contract.
type CommandValidator struct {
	schema *jsonschema.Schema
}

// NewCommandValidator compiles the embedded contract schema.
func NewCommandValidator() (*CommandValidator, error) {
	var raw interface{}
	if err := yaml.Unmarshal([]byte(commandSchema), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse command schema: %w", err)
	}

	schemaJSON, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to convert command schema: %w", err)
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(schemaJSON)))
	if err != nil {
		return nil, fmt.Errorf("failed to load command schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	const schemaURI = "contracts://orders/command"
	if err := compiler.AddResource(schemaURI, doc); err != nil {
		return nil, fmt.Errorf("failed to register command schema: %w", err)
	}

	schema, err := compiler.Compile(schemaURI)
	if err != nil {
		return nil, fmt.Errorf("failed to compile command schema: %w", err)
	}

	return &CommandValidator{schema: schema}, nil
}

// Validate checks a decoded command payload against the contract.
func (v *CommandValidator) Validate(payload interface{}) error {
	// Round-trip through JSON so typed structs validate the same way as
	// raw message bodies.
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal command payload: %w", err)
	}

	instance, err := jsonschema.UnmarshalJSON(strings.NewReader(string(data)))
	if err != nil {
		return fmt.Errorf("failed to decode command payload: %w", err)
	}

	if err := v.schema.Validate(instance); err != nil {
		return fmt.Errorf("order command contract violation: %w", err)
	}
	return nil
}

// ValidateJSON checks a raw JSON payload against the contract.
func (v *CommandValidator) ValidateJSON(payload []byte) error {
	instance, err := jsonschema.UnmarshalJSON(strings.NewReader(string(payload)))
	if err != nil {
		return fmt.Errorf("failed to decode command payload: %w", err)
	}
	if err := v.schema.Validate(instance); err != nil {
		return fmt.Errorf("order command contract violation: %w", err)
	}
	return nil
}
