// Package render injects a page identifier into an XML or JSON payload.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/Lllllllleong/pagetransfer/internal/models"
)

// Placeholder is replaced by the identifier in XML templates.
const Placeholder = "{{PARSEIT_ID}}"

// ErrTemplate wraps every failure to render a payload.
var ErrTemplate = errors.New("template error")

// NormalizeFormat lower-cases and trims the declared format. Empty means xml.
func NormalizeFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", models.FormatXML:
		return models.FormatXML, nil
	case models.FormatJSON:
		return models.FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported payload format %q", format)
	}
}

// Render returns payload with id injected. format must already be normalized.
func Render(payload, format, fieldPath string, id int64) (string, error) {
	switch format {
	case models.FormatXML:
		return renderXML(payload, id)
	case models.FormatJSON:
		return renderJSON(payload, fieldPath, id)
	default:
		return "", fmt.Errorf("%w: unsupported payload format %q", ErrTemplate, format)
	}
}

// renderXML treats the template as opaque text.
func renderXML(payload string, id int64) (string, error) {
	if !utf8.ValidString(payload) {
		return "", fmt.Errorf("%w: xml payload is not valid UTF-8", ErrTemplate)
	}
	return strings.ReplaceAll(payload, Placeholder, strconv.FormatInt(id, 10)), nil
}

func renderJSON(payload, fieldPath string, id int64) (string, error) {
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return "", fmt.Errorf("%w: payload is not valid JSON: %v", ErrTemplate, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("%w: payload has content after the JSON document", ErrTemplate)
	}
	root, ok := doc.(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("%w: payload must be a JSON object", ErrTemplate)
	}

	if fieldPath != "" {
		if err := setPath(root, fieldPath, id); err != nil {
			return "", err
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(root); err != nil {
		return "", fmt.Errorf("%w: failed to encode payload: %v", ErrTemplate, err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// setPath walks a dot-delimited path, replacing missing or non-object
// intermediates with empty objects, and assigns value at the last key.
func setPath(root map[string]interface{}, fieldPath string, value int64) error {
	keys := strings.Split(fieldPath, ".")
	for _, key := range keys {
		if key == "" {
			return fmt.Errorf("%w: invalid field path %q", ErrTemplate, fieldPath)
		}
	}

	node := root
	for _, key := range keys[:len(keys)-1] {
		child, ok := node[key].(map[string]interface{})
		if !ok {
			child = map[string]interface{}{}
			node[key] = child
		}
		node = child
	}
	node[keys[len(keys)-1]] = value
	return nil
}

// Extension is the file extension for a normalized payload format.
func Extension(format string) string {
	if format == models.FormatJSON {
		return "json"
	}
	return "xml"
}
