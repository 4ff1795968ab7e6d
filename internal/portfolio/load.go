package portfolio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/schemas"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/types"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// LoadFile reads a Fact Set from a JSON or YAML file and validates it.
// The format is chosen by extension (.yaml/.yml for YAML, anything else JSON).
func LoadFile(path string) (*types.Portfolio, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "failed to read file", Cause: err}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return Decode(content, FormatYAML, path)
	default:
		return Decode(content, FormatJSON, path)
	}
}

// Format is a serialization format for Fact Set documents.
type Format string

// Supported document formats
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Decode parses and validates a Fact Set document. source names the document in errors.
// The raw document is checked against the schema before it is decoded, so type
// mismatches surface as field errors.
func Decode(content []byte, format Format, source string) (*types.Portfolio, error) {
	var unmarshal func([]byte, any) error
	switch format {
	case FormatYAML:
		unmarshal = yaml.Unmarshal
	case FormatJSON:
		unmarshal = json.Unmarshal
	default:
		return nil, &LoadError{Path: source, Message: fmt.Sprintf("unsupported format %q", format)}
	}

	var generic any
	if err := unmarshal(content, &generic); err != nil {
		return nil, &LoadError{Path: source, Message: fmt.Sprintf("failed to parse %s", strings.ToUpper(string(format))), Cause: err}
	}
	if generic == nil {
		generic = map[string]any{}
	}
	if err := schemas.ValidatePortfolio(generic); err != nil {
		return nil, &InvalidFactsError{Source: source, Cause: err}
	}

	var facts types.Portfolio
	if err := unmarshal(content, &facts); err != nil {
		return nil, &LoadError{Path: source, Message: fmt.Sprintf("failed to decode %s", strings.ToUpper(string(format))), Cause: err}
	}
	if err := Validate(&facts); err != nil {
		return nil, &InvalidFactsError{Source: source, Cause: err}
	}
	return &facts, nil
}

// Validate checks struct-level constraints (required names, email and URL formats).
func Validate(p *types.Portfolio) error {
	if p == nil {
		return fmt.Errorf("portfolio is nil")
	}
	return validate.Struct(p)
}
