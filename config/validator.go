package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Validate checks the configuration against the embedded schema plus a few
// semantic rules the schema cannot express.
func (c *Config) Validate() error {
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	schema := gojsonschema.NewStringLoader(configSchema)
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("config validation error: %w", err)
	}
	if !result.Valid() {
		var errs []string
		for _, e := range result.Errors() {
			errs = append(errs, fmt.Sprintf("- %s", e))
		}
		return fmt.Errorf("config validation failed:\n%s", strings.Join(errs, "\n"))
	}

	for i, f := range c.FAQs {
		if len(f.Keywords) == 0 {
			return fmt.Errorf("faq entry %d (%q) has no keywords", i, f.Question)
		}
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level: %s", c.LogLevel)
	}
	return nil
}

// configSchema is the structural contract for the loaded configuration.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Support Router Configuration",
  "type": "object",
  "required": ["server"],
  "properties": {
    "server": {
      "type": "object",
      "required": ["port"],
      "properties": {
        "host": {"type": "string"},
        "port": {"type": "integer", "minimum": 1, "maximum": 65535},
        "allowed_origins": {
          "type": "array",
          "items": {"type": "string"}
        }
      }
    },
    "llm": {
      "type": "object",
      "properties": {
        "provider": {"type": "string"},
        "model": {"type": "string"},
        "timeout_seconds": {"type": "integer", "minimum": 0}
      }
    },
    "storage": {
      "type": "object",
      "properties": {
        "postgres_dsn": {"type": "string"},
        "redis_addr": {"type": "string"},
        "session_ttl_hours": {"type": "integer", "minimum": 0}
      }
    },
    "escalation": {
      "type": "object",
      "properties": {
        "extra_keywords": {"type": "array", "items": {"type": "string", "minLength": 1}},
        "high_severity_keywords": {"type": "array", "items": {"type": "string", "minLength": 1}}
      }
    },
    "faqs": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["question", "answer", "keywords"],
        "properties": {
          "question": {"type": "string", "minLength": 1},
          "answer": {"type": "string", "minLength": 1},
          "keywords": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`
