package fs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/docmap/pkg/core"
)

// BodyField is the record field a Markdown file stores as its body instead of
// in the frontmatter.
const BodyField = "content"

// Serializer reads and writes the fields of one record in a specific format.
type Serializer interface {
	Parse(r io.Reader) (core.Fields, error)
	Serialize(fields core.Fields) ([]byte, error)
}

// DefaultSerializers returns the serializers registered for each supported
// extension.
func DefaultSerializers(strict bool) map[string]Serializer {
	return map[string]Serializer{
		".json": &JSONSerializer{Strict: strict},
		".yaml": &YAMLSerializer{Strict: strict},
		".yml":  &YAMLSerializer{Strict: strict},
		".md":   &MarkdownSerializer{Strict: strict},
	}
}

// JSONSerializer stores fields as an indented JSON object.
type JSONSerializer struct {
	// Strict decodes numbers as json.Number to avoid float64 precision loss.
	Strict bool
}

func (s *JSONSerializer) Parse(r io.Reader) (core.Fields, error) {
	dec := json.NewDecoder(r)
	if s.Strict {
		dec.UseNumber()
	}
	var fields core.Fields
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	if fields == nil {
		fields = core.Fields{}
	}
	return fields, nil
}

func (s *JSONSerializer) Serialize(fields core.Fields) ([]byte, error) {
	if fields == nil {
		fields = core.Fields{}
	}
	return json.MarshalIndent(fields, "", "  ")
}

// YAMLSerializer stores fields as a YAML mapping.
type YAMLSerializer struct {
	// Strict normalizes numbers to json.Number, matching JSONSerializer.
	Strict bool
}

func (s *YAMLSerializer) Parse(r io.Reader) (core.Fields, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	fields := core.Fields{}
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	if s.Strict {
		fields = normalizeNumbers(fields).(core.Fields)
	}
	return fields, nil
}

func (s *YAMLSerializer) Serialize(fields core.Fields) ([]byte, error) {
	if fields == nil {
		fields = core.Fields{}
	}
	return yaml.Marshal(plainNumbers(map[string]any(fields)))
}

// MarkdownSerializer stores fields as YAML frontmatter, with BodyField as the
// document body.
type MarkdownSerializer struct {
	Strict bool
}

func (s *MarkdownSerializer) Parse(r io.Reader) (core.Fields, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	fields := core.Fields{}
	if !bytes.HasPrefix(data, []byte("---\n")) && !bytes.HasPrefix(data, []byte("---\r\n")) {
		if len(data) > 0 {
			fields[BodyField] = string(data)
		}
		return fields, nil
	}

	parts := bytes.SplitN(data[3:], []byte("\n---"), 2)
	if len(parts) == 1 {
		return nil, errors.New("frontmatter started but no closing delimiter found")
	}
	if err := yaml.Unmarshal(parts[0], &fields); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	body := strings.TrimPrefix(string(parts[1]), "\r")
	body = strings.TrimPrefix(body, "\n")
	if body != "" {
		fields[BodyField] = body
	}

	if s.Strict {
		fields = normalizeNumbers(fields).(core.Fields)
	}
	return fields, nil
}

func (s *MarkdownSerializer) Serialize(fields core.Fields) ([]byte, error) {
	front := make(map[string]any, len(fields))
	var body string
	for k, v := range fields {
		if k == BodyField {
			if str, ok := v.(string); ok {
				body = str
				continue
			}
		}
		front[k] = plainNumbers(v)
	}

	var buf bytes.Buffer
	if len(front) > 0 {
		buf.WriteString("---\n")
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(front); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		buf.WriteString("---\n")
	}
	buf.WriteString(body)
	return buf.Bytes(), nil
}

// normalizeNumbers converts numeric leaves to json.Number so YAML and JSON
// yield identical values in strict mode.
func normalizeNumbers(val any) any {
	switch v := val.(type) {
	case core.Fields:
		m := make(core.Fields, len(v))
		for k, e := range v {
			m[k] = normalizeNumbers(e)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, e := range v {
			m[k] = normalizeNumbers(e)
		}
		return m
	case []any:
		l := make([]any, len(v))
		for i, e := range v {
			l[i] = normalizeNumbers(e)
		}
		return l
	case int:
		return json.Number(fmt.Sprintf("%d", v))
	case int64:
		return json.Number(fmt.Sprintf("%d", v))
	case uint64:
		return json.Number(fmt.Sprintf("%d", v))
	case float64:
		return json.Number(fmt.Sprintf("%v", v))
	default:
		return v
	}
}

// plainNumbers turns json.Number leaves into int64 or float64 so YAML writes
// them as numbers rather than quoted strings.
func plainNumbers(val any) any {
	switch v := val.(type) {
	case core.Fields:
		return plainNumbers(map[string]any(v))
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, e := range v {
			m[k] = plainNumbers(e)
		}
		return m
	case []any:
		l := make([]any, len(v))
		for i, e := range v {
			l[i] = plainNumbers(e)
		}
		return l
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return string(v)
	default:
		return v
	}
}
