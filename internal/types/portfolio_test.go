package types

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortfolio_Validate(t *testing.T) {
	validate := validator.New()

	t.Run("valid portfolio", func(t *testing.T) {
		p := Portfolio{
			Profile:  Profile{Name: "Lin", Title: "Engineer", Email: "lin@example.com"},
			Projects: []Project{{Name: "Minty"}},
		}
		require.NoError(t, validate.Struct(p))
	})

	t.Run("missing profile name", func(t *testing.T) {
		p := Portfolio{Profile: Profile{Title: "Engineer"}}
		err := validate.Struct(p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Name")
	})

	t.Run("nested project without name", func(t *testing.T) {
		p := Portfolio{
			Profile:  Profile{Name: "Lin", Title: "Engineer"},
			Projects: []Project{{Category: "web"}},
		}
		err := validate.Struct(p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Projects[0].Name")
	})

	t.Run("bad email", func(t *testing.T) {
		p := Portfolio{Profile: Profile{Name: "Lin", Title: "Engineer", Email: "not-an-email"}}
		assert.Error(t, validate.Struct(p))
	})
}

func TestPortfolio_ProjectNames(t *testing.T) {
	p := &Portfolio{Projects: []Project{{Name: "Minty"}, {Name: ""}, {Name: "Orbit"}}}
	assert.Equal(t, []string{"Minty", "Orbit"}, p.ProjectNames())

	var empty *Portfolio
	assert.Nil(t, empty.ProjectNames())
}

func TestUIStateRequest_Validate(t *testing.T) {
	validate := validator.New()
	assert.NoError(t, validate.Struct(UIStateRequest{State: "minimized"}))
	assert.Error(t, validate.Struct(UIStateRequest{State: "maximized"}))
	assert.Error(t, validate.Struct(UIStateRequest{}))
}
