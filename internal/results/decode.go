package results

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	smerrors "github.com/Aman-CERP/searchmark/internal/errors"
)

// Format is an input encoding for search results.
type Format string

const (
	// FormatJSON is a JSON array or a single JSON object.
	FormatJSON Format = "json"
	// FormatJSONL is one JSON object per line.
	FormatJSONL Format = "jsonl"
	// FormatYAML is one or more YAML documents, each a list or a single item.
	FormatYAML Format = "yaml"
)

// maxLineBytes bounds a single JSONL record.
const maxLineBytes = 4 << 20

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "jsonl", "ndjson":
		return FormatJSONL, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", smerrors.New(smerrors.ErrCodeInvalidFormat, "unknown input format: "+s, nil).
			WithSuggestion("use json, jsonl or yaml")
	}
}

// FormatFromPath guesses the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return FormatJSONL
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode reads search results from r.
func Decode(r io.Reader, f Format) ([]SearchResult, error) {
	switch f {
	case FormatJSON:
		return decodeJSON(r)
	case FormatJSONL:
		return decodeJSONL(r)
	case FormatYAML:
		return decodeYAML(r)
	default:
		return nil, smerrors.New(smerrors.ErrCodeInvalidFormat, "unknown input format: "+string(f), nil)
	}
}

func decodeFailed(format Format, err error) *smerrors.SearchmarkError {
	return smerrors.New(smerrors.ErrCodeDecodeFailed, "failed to decode "+string(format)+" input", err).
		WithDetail("format", string(format))
}

func decodeJSON(r io.Reader) ([]SearchResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, decodeFailed(FormatJSON, err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []SearchResult{}, nil
	}

	if data[0] == '[' {
		var items []SearchResult
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, decodeFailed(FormatJSON, err)
		}
		if items == nil {
			items = []SearchResult{}
		}
		return items, nil
	}

	var item SearchResult
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, decodeFailed(FormatJSON, err)
	}
	return []SearchResult{item}, nil
}

func decodeJSONL(r io.Reader) ([]SearchResult, error) {
	items := []SearchResult{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var item SearchResult
		if err := json.Unmarshal(text, &item); err != nil {
			return nil, decodeFailed(FormatJSONL, err).WithDetail("line", strconv.Itoa(line))
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, decodeFailed(FormatJSONL, err).WithDetail("line", strconv.Itoa(line+1))
	}
	return items, nil
}

func decodeYAML(r io.Reader) ([]SearchResult, error) {
	items := []SearchResult{}
	dec := yaml.NewDecoder(r)

	for doc := 1; ; doc++ {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			return items, nil
		}
		if err != nil {
			return nil, decodeFailed(FormatYAML, err).WithDetail("document", strconv.Itoa(doc))
		}

		root := &node
		if root.Kind == yaml.DocumentNode {
			if len(root.Content) == 0 {
				continue
			}
			root = root.Content[0]
		}

		switch root.Kind {
		case yaml.SequenceNode:
			var batch []SearchResult
			if err := root.Decode(&batch); err != nil {
				return nil, decodeFailed(FormatYAML, err).WithDetail("document", strconv.Itoa(doc))
			}
			items = append(items, batch...)
		case yaml.MappingNode:
			var item SearchResult
			if err := root.Decode(&item); err != nil {
				return nil, decodeFailed(FormatYAML, err).WithDetail("document", strconv.Itoa(doc))
			}
			items = append(items, item)
		case yaml.ScalarNode:
			if root.Tag == "!!null" {
				continue
			}
			return nil, decodeFailed(FormatYAML, errors.New("expected a list or a mapping")).
				WithDetail("document", strconv.Itoa(doc))
		default:
			return nil, decodeFailed(FormatYAML, errors.New("expected a list or a mapping")).
				WithDetail("document", strconv.Itoa(doc))
		}
	}
}
