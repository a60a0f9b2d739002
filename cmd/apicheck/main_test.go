package main

import (
	"testing"

	"scrolla/docs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baselineYAML = `
paths:
  /posts:
    get:
      responses:
        "200": {description: OK}
        "400": {description: Bad Request}
    post:
      responses:
        "201": {description: Created}
  /legacy:
    get:
      responses:
        "200": {description: OK}
`

func TestParseDoc_CompiledDocs(t *testing.T) {
	doc, err := parseDoc([]byte(docs.SwaggerInfo.ReadDoc()))
	require.NoError(t, err)
	require.Contains(t, doc, "/posts")
	assert.True(t, doc["/posts"]["get"]["200"])
	assert.Contains(t, doc, "/journeys/{id}/complete")
	assert.Contains(t, doc["/ws/ticket"], "post")
}

func TestParseDoc_MissingPaths(t *testing.T) {
	_, err := parseDoc([]byte("swagger: \"2.0\"\n"))
	assert.Error(t, err)
}

func TestBreakingChanges(t *testing.T) {
	base, err := parseDoc([]byte(baselineYAML))
	require.NoError(t, err)

	revision, err := parseDoc([]byte(`{"paths": {"/posts": {"get": {"responses": {"200": {}}}}, "/new": {"get": {"responses": {"200": {}}}}}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"removed operation: POST /posts",
		"removed path: /legacy",
		"removed response code: GET /posts -> 400",
	}, breakingChanges(base, revision))

	assert.Empty(t, breakingChanges(revision, revision))
}
