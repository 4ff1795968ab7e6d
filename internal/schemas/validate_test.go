package schemas

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortfolioSchema_IsValidJSON(t *testing.T) {
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(PortfolioSchema()), &v))
	assert.Equal(t, "object", v["type"])
}

func TestValidatePortfolio(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		doc := map[string]any{
			"profile":  map[string]any{"name": "Lin", "title": "Developer"},
			"projects": []any{map[string]any{"name": "Minty", "stack": []any{"Go"}}},
		}
		assert.NoError(t, ValidatePortfolio(doc))
	})

	t.Run("missing profile", func(t *testing.T) {
		err := ValidatePortfolio(map[string]any{"projects": []any{}})
		require.Error(t, err)

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "(root)", validationErr.Errors[0].Field)
	})

	t.Run("project without name", func(t *testing.T) {
		doc := map[string]any{
			"profile":  map[string]any{"name": "Lin", "title": "Developer"},
			"projects": []any{map[string]any{"category": "web"}},
		}
		err := ValidatePortfolio(doc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "projects.0")
	})

	t.Run("wrong type", func(t *testing.T) {
		doc := map[string]any{
			"profile": map[string]any{"name": "Lin", "title": "Developer"},
			"skills":  map[string]any{"backend": "Go"},
		}
		assert.Error(t, ValidatePortfolio(doc))
	})
}

func TestValidateJSONString(t *testing.T) {
	schema := `{"type":"object","required":["name"],"properties":{"name":{"type":"string"}}}`

	assert.NoError(t, ValidateJSONString(schema, `{"name":"ok"}`))

	err := ValidateJSONString(schema, `{"name":1}`)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Len(t, validationErr.Errors, 1)

	err = ValidateJSONString(`{not json`, `{}`)
	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestValidateJSON_Files(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "portfolio.schema.json")
	require.NoError(t, os.WriteFile(schemaPath, []byte(PortfolioSchema()), 0o600))

	valid := filepath.Join(dir, "valid.json")
	require.NoError(t, os.WriteFile(valid, []byte(`{"profile":{"name":"Lin","title":"Dev"}}`), 0o600))
	assert.NoError(t, ValidateJSON(schemaPath, valid))

	invalid := filepath.Join(dir, "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`{"profile":{"name":"Lin"}}`), 0o600))
	assert.Error(t, ValidateJSON(schemaPath, invalid))

	err := ValidateJSON(filepath.Join(dir, "missing.json"), valid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
