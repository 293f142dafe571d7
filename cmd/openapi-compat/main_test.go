package main

import (
	"testing"

	"talenthub/docs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
paths:
  /challenges:
    get:
      responses:
        "200": {}
    post:
      responses:
        "201": {}
        "400": {}
  /users/login:
    post:
      responses:
        "200": {}
        "401": {}
    parameters: []
`

func TestCompare(t *testing.T) {
	base, err := parseSpec([]byte(baseYAML))
	require.NoError(t, err)

	t.Run("identical", func(t *testing.T) {
		assert.Empty(t, compare(base, base))
	})

	t.Run("removals are reported", func(t *testing.T) {
		rev, err := parseSpec([]byte(`{"paths": {"/challenges": {"get": {"responses": {"200": {}}}, "post": {"responses": {"201": {}}}}}}`))
		require.NoError(t, err)
		assert.Equal(t, []string{
			"removed path: /users/login",
			"removed response code: POST /challenges -> 400",
		}, compare(base, rev))
	})

	t.Run("additions are allowed", func(t *testing.T) {
		rev, err := parseSpec([]byte(baseYAML + "  /videos:\n    get:\n      responses:\n        \"200\": {}\n"))
		require.NoError(t, err)
		assert.Empty(t, compare(base, rev))
	})
}

func TestParseSpec_MissingPaths(t *testing.T) {
	_, err := parseSpec([]byte("swagger: \"2.0\"\n"))
	assert.Error(t, err)
}

func TestRegisteredDocParses(t *testing.T) {
	spec, err := parseSpec([]byte(docs.SwaggerInfo.ReadDoc()))
	require.NoError(t, err)
	assert.Contains(t, spec.Paths, "/challenges/{id}/participate")
	assert.Contains(t, spec.Paths["/users/process-admin-request/{userId}"], "patch")
}
