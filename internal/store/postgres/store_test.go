package postgres

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFieldExpr(t *testing.T) {
	t.Parallel()

	require.Equal(t, "fields->>'displayName'", fieldExpr("displayName"))

	// A quote in the field name stays inside the string literal.
	require.Equal(t, "fields->>'a''; drop table documents; --'", fieldExpr("a'; drop table documents; --"))
}
