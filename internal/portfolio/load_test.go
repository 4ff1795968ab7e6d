package portfolio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
  "profile": {"name": "Lin Phone", "title": "Developer", "email": "lin@example.com"},
  "skills": {"backend": ["Go"]},
  "projects": [{"name": "Minty", "category": "web", "stack": ["Next.js"]}],
  "education": [{"school": "KMITL", "credential": "B.Eng."}]
}`

const sampleYAML = `
profile:
  name: Lin Phone
  title: Developer
projects:
  - name: Minty
    year: "2024"
    features: [Shared wallets]
experience:
  - role: Engineer
    company: Acme
    period: 2021 - 2023
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile_JSON(t *testing.T) {
	facts, err := LoadFile(writeFile(t, "facts.json", sampleJSON))
	require.NoError(t, err)

	assert.Equal(t, "Lin Phone", facts.Profile.Name)
	assert.Equal(t, []string{"Go"}, facts.Skills["backend"])
	require.Len(t, facts.Projects, 1)
	assert.Equal(t, "Minty", facts.Projects[0].Name)
}

func TestLoadFile_YAML(t *testing.T) {
	facts, err := LoadFile(writeFile(t, "facts.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "Developer", facts.Profile.Title)
	assert.Equal(t, "2024", facts.Projects[0].Year)
	assert.Equal(t, "Acme", facts.Experience[0].Company)
}

func TestLoadFile_YAMLNumericScalars(t *testing.T) {
	const numeric = `
profile:
  name: Lin Phone
  title: Developer
projects:
  - name: Minty
    year: 2024
education:
  - school: KMITL
    credential: B.Eng.
    period: 2019
    gpa: 3.8
certifications:
  - name: CKA
    year: 2023
`
	facts, err := LoadFile(writeFile(t, "facts.yaml", numeric))
	require.NoError(t, err)

	assert.Equal(t, "2024", facts.Projects[0].Year)
	assert.Equal(t, "3.8", facts.Education[0].GPA)
	assert.Equal(t, "2019", facts.Education[0].Period)
	assert.Equal(t, "2023", facts.Certifications[0].Year)
}

func TestLoadFile_YAMLRejectsNonScalarYear(t *testing.T) {
	const nested = `
profile:
  name: Lin Phone
  title: Developer
projects:
  - name: Minty
    year: [2024]
`
	_, err := LoadFile(writeFile(t, "facts.yaml", nested))
	var schemaErr *schemas.ValidationError
	require.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, err.Error(), "year")
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)

	var loadErr *LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestLoadFile_MalformedJSON(t *testing.T) {
	_, err := LoadFile(writeFile(t, "facts.json", `{"profile": `))

	var loadErr *LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestLoadFile_SchemaViolation(t *testing.T) {
	_, err := LoadFile(writeFile(t, "facts.json", `{"profile": {"name": "Lin"}}`))
	require.Error(t, err)

	var invalid *InvalidFactsError
	require.ErrorAs(t, err, &invalid)
	var schemaErr *schemas.ValidationError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestLoadFile_StructViolation(t *testing.T) {
	_, err := LoadFile(writeFile(t, "facts.json", `{"profile": {"name": "Lin", "title": "Dev", "email": "nope"}}`))
	require.Error(t, err)

	var invalid *InvalidFactsError
	assert.ErrorAs(t, err, &invalid)
	assert.Contains(t, err.Error(), "Email")
}

func TestDecode_EmptyYAML(t *testing.T) {
	_, err := Decode([]byte(""), FormatYAML, "inline")
	var invalid *InvalidFactsError
	assert.ErrorAs(t, err, &invalid)
}

func TestStore_ReplaceBumpsVersion(t *testing.T) {
	first, err := Decode([]byte(sampleJSON), FormatJSON, "inline")
	require.NoError(t, err)
	store := NewStore(first)

	snap := store.Current()
	assert.Equal(t, int64(1), snap.Version)
	assert.Contains(t, snap.Knowledge.Passage(), "Minty")

	second, err := Decode([]byte(sampleYAML), FormatYAML, "inline")
	require.NoError(t, err)
	next := store.Replace(second)

	assert.Equal(t, int64(2), next.Version)
	assert.Same(t, next, store.Current())
	assert.Contains(t, snap.Knowledge.Passage(), "Minty", "old snapshot keeps its passage")
}
