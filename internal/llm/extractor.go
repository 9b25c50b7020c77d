// Package llm - extractor.go provides schema-driven structured extraction prompts.
package llm

import (
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

// FieldKind is the JSON type of an extraction field.
type FieldKind string

const (
	KindString  FieldKind = "string"
	KindInteger FieldKind = "integer"
)

// ExtractionSchema defines the structure for LLM-based content extraction.
type ExtractionSchema struct {
	Name        string        // Schema name (e.g., "LeadAnalysis")
	Description string        // Preamble describing the task
	Fields      []SchemaField // Expected output fields
	Rules       []string      // Extra instructions listed after the structure
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string    // JSON field name
	Kind        FieldKind // JSON type
	Description string    // Description for the LLM
	Required    bool      // Whether this field is required
	Nullable    bool      // Whether null is an accepted value
}

// BuildExtractionPrompt constructs the LLM prompt from schema and input text.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	sb.WriteString(strings.TrimSpace(schema.Description))
	sb.WriteString("\n\n")

	sb.WriteString("Input:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n\n")

	sb.WriteString("Provide a JSON object with the following fields:\n")
	for i, field := range schema.Fields {
		typeHint := string(field.Kind)
		if typeHint == "" {
			typeHint = string(KindString)
		}
		if field.Nullable {
			typeHint += " or null"
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("%d. \"%s\": %s%s", i+1, field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(": %s", field.Description))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	sb.WriteString("IMPORTANT:\n")
	for _, rule := range schema.Rules {
		sb.WriteString("- ")
		sb.WriteString(rule)
		sb.WriteString("\n")
	}
	sb.WriteString("- Return ONLY the raw JSON object. Do not include markdown formatting like ```json.\n")

	return sb.String()
}

// ResponseSchema converts the schema into a Gemini response schema.
func (s ExtractionSchema) ResponseSchema() *genai.Schema {
	props := make(map[string]*genai.Schema, len(s.Fields))
	var required []string
	for _, f := range s.Fields {
		t := genai.TypeString
		if f.Kind == KindInteger {
			t = genai.TypeInteger
		}
		props[f.Name] = &genai.Schema{
			Type:        t,
			Description: f.Description,
			Nullable:    f.Nullable,
		}
		if f.Required {
			required = append(required, f.Name)
		}
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   required,
	}
}

// LeadAnalysisSchema returns the schema for scoring a business lead.
// description is the analyst preamble, normally loaded from the prompts package.
func LeadAnalysisSchema(description string) ExtractionSchema {
	return ExtractionSchema{
		Name:        "LeadAnalysis",
		Description: description,
		Fields: []SchemaField{
			{
				Name:        "seo_health",
				Kind:        KindInteger,
				Description: "An integer from 1-10 estimating their SEO health (10 being perfect). If no website, give 0.",
				Required:    true,
			},
			{
				Name:        "missing_features",
				Kind:        KindString,
				Description: `A short string listing potential missing features (e.g., "no booking system", "no website", "basic design").`,
				Required:    true,
			},
			{
				Name:        "outreach_message",
				Kind:        KindString,
				Description: "A personalized cold outreach message (max 2 sentences) offering web development or SEO services, mentioning their name and specific missing features.",
				Required:    true,
			},
			{
				Name:        "email",
				Kind:        KindString,
				Description: "A contact email address from the website text if present, otherwise null. Prefer addresses listed in EXTRACTED_EMAILS.",
				Required:    true,
				Nullable:    true,
			},
			{
				Name:        "contact_person",
				Kind:        KindString,
				Description: "A key contact person's name (founder, owner, manager) from the website text if present, otherwise null.",
				Required:    true,
				Nullable:    true,
			},
		},
		Rules: []string{
			"Base every field on the input; do not invent contact details.",
		},
	}
}
