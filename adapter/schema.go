// Copyright 2025 The A2A Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package adapter

import (
	"embed"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Schema names a JSON Schema bundled with the package.
type Schema string

const (
	SchemaTask        Schema = "task"
	SchemaMessage     Schema = "message"
	SchemaStreamEvent Schema = "stream_event"
	SchemaAgentCard   Schema = "agent_card"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

// SchemaValidator checks A2A JSON objects against the bundled schemas.
// Compiled schemas are cached, and a validator may be shared by adapters.
type SchemaValidator struct {
	mu    sync.Mutex
	cache map[Schema]*gojsonschema.Schema
}

// NewSchemaValidator creates a new schema validator.
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{cache: make(map[Schema]*gojsonschema.Schema)}
}

// Validate returns one message per schema violation of value. A nil result
// means value conforms.
func (sv *SchemaValidator) Validate(name Schema, value any) ([]string, error) {
	schema, err := sv.schema(name)
	if err != nil {
		return nil, err
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(value))
	if err != nil {
		return nil, fmt.Errorf("validation error for %s: %w", name, err)
	}
	if result.Valid() {
		return nil, nil
	}
	issues := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		issues[i] = fmt.Sprintf("%s: %s", name, desc.String())
	}
	return issues, nil
}

func (sv *SchemaValidator) schema(name Schema) (*gojsonschema.Schema, error) {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	if schema, ok := sv.cache[name]; ok {
		return schema, nil
	}
	data, err := schemaFiles.ReadFile("schemas/" + string(name) + ".json")
	if err != nil {
		return nil, fmt.Errorf("unknown schema %q", name)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid schema %s: %w", name, err)
	}
	sv.cache[name] = schema
	return schema, nil
}
