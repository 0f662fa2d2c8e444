package usecase

import (
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/fairyhunter13/ai-interview-coach/pkg/llmjson"
)

const feedbackSchemaJSON = `{
  "type": "object",
  "required": ["feedback", "overall_score"],
  "properties": {
    "overall_score": {"type": "number"},
    "feedback": {
      "type": "object",
      "required": ["technical_knowledge", "communication_skills", "confidence", "problem_solving"],
      "properties": {
        "technical_knowledge": {"type": "string"},
        "communication_skills": {"type": "string"},
        "confidence": {"type": "string"},
        "problem_solving": {"type": "string"},
        "suggestions": {
          "type": "object",
          "additionalProperties": {"type": "string"}
        }
      }
    }
  }
}`

const questionSchemaJSON = `{
  "type": "object",
  "required": ["question", "option1", "option2", "option3", "option4", "answer"],
  "properties": {
    "question": {"type": "string", "minLength": 1},
    "option1": {"type": "string", "minLength": 1},
    "option2": {"type": "string", "minLength": 1},
    "option3": {"type": "string", "minLength": 1},
    "option4": {"type": "string", "minLength": 1},
    "answer": {"type": "string", "minLength": 1},
    "subject": {"type": "string"}
  }
}`

const resumeSchemaJSON = `{
  "type": "object",
  "required": ["ats_score"],
  "definitions": {
    "text": {
      "oneOf": [
        {"type": "string"},
        {"type": "array", "items": {"type": "string"}}
      ]
    }
  },
  "properties": {
    "ats_score": {"type": "number"},
    "grammatical_mistakes": {"$ref": "#/definitions/text"},
    "suggestions": {"$ref": "#/definitions/text"}
  }
}`

var (
	feedbackSchema = jsonschema.MustCompileString("feedback.json", feedbackSchemaJSON)
	questionSchema = jsonschema.MustCompileString("question.json", questionSchemaJSON)
	resumeSchema   = jsonschema.MustCompileString("resume.json", resumeSchemaJSON)
)

// validateRecord checks rec against schema and reports the first violation.
func validateRecord(schema *jsonschema.Schema, rec llmjson.Record) error {
	if err := schema.Validate(map[string]any(rec)); err != nil {
		return fmt.Errorf("record does not match schema: %w", err)
	}
	return nil
}
