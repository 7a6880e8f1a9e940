package generate

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Shape names one of the JSON payload layouts the backend may accept.
type Shape string

const (
	// ShapeData wraps the prompt in a Gradio-style positional array:
	// {"data": [prompt, max_length, temperature]}.
	ShapeData Shape = "data"
	// ShapeInputs is the inference-API layout:
	// {"inputs": prompt, "parameters": {...}}.
	ShapeInputs Shape = "inputs"
	// ShapePrompt is {"prompt": prompt, "max_length": n, "temperature": t}.
	ShapePrompt Shape = "prompt"
	// ShapeText is the bare {"text": prompt} layout.
	ShapeText Shape = "text"
	// ShapeMessage is the bare {"message": prompt} layout.
	ShapeMessage Shape = "message"
)

// Candidate is one endpoint-suffix/payload-shape combination to try against
// the backend. Candidates are attempted strictly in list order.
type Candidate struct {
	// Endpoint is the path suffix appended to the backend base URL,
	// e.g. "/api/predict".
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// Shape selects the request payload layout.
	Shape Shape `yaml:"shape" json:"shape"`

	// TimeoutSeconds bounds this attempt. Zero means the client default.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
}

// Timeout returns the per-attempt timeout, or fallback when unset.
func (c Candidate) Timeout(fallback time.Duration) time.Duration {
	if c.TimeoutSeconds > 0 {
		return time.Duration(c.TimeoutSeconds) * time.Second
	}
	return fallback
}

// DefaultCandidates returns the built-in attempt order: every known payload
// shape appears at least once, against the endpoint suffixes observed on
// HuggingFace Space deployments. The Gradio layouts come first because they
// are by far the most common.
func DefaultCandidates() []Candidate {
	return []Candidate{
		{Endpoint: "/api/predict", Shape: ShapeData},
		{Endpoint: "/predict", Shape: ShapeData},
		{Endpoint: "/api/generate", Shape: ShapeInputs},
		{Endpoint: "/generate", Shape: ShapePrompt},
		{Endpoint: "/api/generate", Shape: ShapeText},
		{Endpoint: "/generate", Shape: ShapeMessage},
	}
}

//go:embed candidates_schema.json
var candidatesSchemaJSON string

// candidatesFile is the on-disk layout of a candidates config file.
type candidatesFile struct {
	Candidates []Candidate `yaml:"candidates" json:"candidates"`
}

// LoadCandidates reads a YAML candidates file, validates it against the
// embedded JSON schema, and returns the ordered candidate list. The schema
// check runs before decoding into structs so that typos (unknown shapes,
// missing endpoints) fail with a precise message instead of producing a
// half-usable list.
func LoadCandidates(path string) ([]Candidate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("generate: read candidates file: %w", err)
	}
	return ParseCandidates(raw)
}

// ParseCandidates validates and decodes a YAML candidates document.
func ParseCandidates(raw []byte) ([]Candidate, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("generate: parse candidates yaml: %w", err)
	}

	// Round-trip through encoding/json so the schema validator sees the
	// plain JSON types it expects (float64 numbers, string keys).
	jsonDoc, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("generate: candidates to json: %w", err)
	}
	var normalized any
	if err := json.Unmarshal(jsonDoc, &normalized); err != nil {
		return nil, fmt.Errorf("generate: candidates from json: %w", err)
	}

	if err := candidatesSchema().Validate(normalized); err != nil {
		return nil, fmt.Errorf("generate: candidates schema: %w", err)
	}

	var file candidatesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("generate: decode candidates: %w", err)
	}
	return file.Candidates, nil
}

// candidatesSchema compiles the embedded schema. The schema is a build-time
// constant, so a compile failure is a programming error.
func candidatesSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("candidates_schema.json", strings.NewReader(candidatesSchemaJSON)); err != nil {
		panic(fmt.Sprintf("generate: add schema resource: %v", err))
	}
	schema, err := compiler.Compile("candidates_schema.json")
	if err != nil {
		panic(fmt.Sprintf("generate: compile candidates schema: %v", err))
	}
	return schema
}
