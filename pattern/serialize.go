package pattern

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// commandDoc is validated with go-playground/validator/v10 before a Command
// pattern's argv is accepted — the same validate-struct-tag idiom the
// teacher uses on its request DTOs (internal/infrastructure/api/rest).
type commandDoc struct {
	Command []string `validate:"required,min=1,dive,required"`
}

var docValidator = validator.New()

// Deserialize parses a YAML-encoded pattern document into a Pattern tree,
// recursively resolving the "type" tag of every node exactly as
// petriish/serialization.py's deserializers table does. An unrecognized
// "type" value, or a command with an empty argv, is reported as a
// *ValidationError.
func Deserialize(data []byte) (Pattern, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Pattern{}, fmt.Errorf("pattern: parsing document: %w", err)
	}
	return decodeNode(raw)
}

// DeserializeJSON is the encoding/json equivalent of Deserialize, for
// callers (the HTTP API) that receive a pattern document as a JSON body
// rather than a YAML file.
func DeserializeJSON(raw any) (Pattern, error) {
	return decodeNode(raw)
}

func decodeNode(raw any) (Pattern, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return Pattern{}, &ValidationError{Field: "type", Message: "node is not an object"}
	}

	typ, _ := m["type"].(string)

	switch typ {
	case "sequence":
		children, err := decodeChildren(m)
		if err != nil {
			return Pattern{}, err
		}
		return NewSequence(children...), nil
	case "parallelization":
		children, err := decodeChildren(m)
		if err != nil {
			return Pattern{}, err
		}
		return NewParallelization(children...), nil
	case "alternative":
		children, err := decodeChildren(m)
		if err != nil {
			return Pattern{}, err
		}
		// An empty children list deserializes fine — Alternative([]) is a
		// legal pattern that simply fails the instant it is started
		// (spec.md §4.4/§8, alternativeState.Status's allCount==0 case), not
		// a document error.
		return NewAlternative(children...), nil
	case "repetition":
		childRaw, ok := m["child"]
		if !ok {
			return Pattern{}, &ValidationError{Field: "child", Message: "repetition requires a child"}
		}
		exitRaw, ok := m["exit"]
		if !ok {
			return Pattern{}, &ValidationError{Field: "exit", Message: "repetition requires an exit"}
		}
		child, err := decodeNode(childRaw)
		if err != nil {
			return Pattern{}, err
		}
		exit, err := decodeNode(exitRaw)
		if err != nil {
			return Pattern{}, err
		}
		return NewRepetition(child, exit), nil
	case "command":
		argv, err := decodeArgv(m["command"])
		if err != nil {
			return Pattern{}, err
		}
		return NewCommand(argv...), nil
	case "":
		return Pattern{}, &ValidationError{Field: "type", Message: "missing type tag"}
	default:
		return Pattern{}, &ValidationError{Field: "type", Message: fmt.Sprintf("unknown pattern type %q", typ)}
	}
}

func decodeChildren(m map[string]any) ([]Pattern, error) {
	raw, ok := m["children"].([]any)
	if !ok {
		return nil, &ValidationError{Field: "children", Message: "missing or malformed children list"}
	}
	if len(raw) == 0 {
		// nil, not an empty slice, so the result is structurally equal to
		// the same pattern built with no arguments (e.g. NewAlternative()).
		return nil, nil
	}
	children := make([]Pattern, 0, len(raw))
	for i, sub := range raw {
		p, err := decodeNode(sub)
		if err != nil {
			return nil, fmt.Errorf("children[%d]: %w", i, err)
		}
		children = append(children, p)
	}
	return children, nil
}

func decodeArgv(raw any) ([]string, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, &ValidationError{Field: "command", Message: "command must be a list of strings"}
	}
	argv := make([]string, 0, len(list))
	for _, v := range list {
		s, ok := v.(string)
		if !ok {
			return nil, &ValidationError{Field: "command", Message: "command entries must be strings"}
		}
		argv = append(argv, s)
	}

	doc := commandDoc{Command: argv}
	if err := docValidator.Struct(doc); err != nil {
		return nil, &ValidationError{Field: "command", Message: "command must be a non-empty argv: " + err.Error()}
	}
	return argv, nil
}
