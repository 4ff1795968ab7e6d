package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateOwner(t *testing.T) {
	for _, owner := range []string{"lin", "lin-phone-2000", "a1"} {
		assert.NoError(t, ValidateOwner(owner), owner)
	}
	for _, owner := range []string{"", "Lin", "-lin", "lin_phone", "lin phone", "x/../y"} {
		assert.Error(t, ValidateOwner(owner), owner)
	}
}

func TestSchemaEmbedded(t *testing.T) {
	assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS portfolio_facts")
	assert.Contains(t, schemaSQL, "JSONB")
}
