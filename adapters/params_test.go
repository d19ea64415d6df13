package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "$schema": "http://json-schema.org/draft-04/schema#",
  "title": "Test network app params",
  "type": "object",
  "properties": {
    "app_name": {"type": "string", "minLength": 1},
    "package_name": {"type": "string"},
    "platform": {"type": "string", "enum": ["android", "ios"]}
  },
  "required": ["app_name", "platform"]
}`

func writeSchemas(t *testing.T, networks ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, network := range networks {
		require.NoError(t, os.WriteFile(filepath.Join(dir, network+".json"), []byte(testSchema), 0o644))
	}
	return dir
}

func TestParamsValidatorAccepts(t *testing.T) {
	dir := writeSchemas(t, "pangle")
	validator, err := NewParamsValidator(dir, []string{"pangle"})
	require.NoError(t, err)

	err = validator.Validate("pangle", []byte(`{"app_name":"My Game","platform":"android"}`))
	assert.NoError(t, err)
}

func TestParamsValidatorRejectsShape(t *testing.T) {
	dir := writeSchemas(t, "pangle")
	validator, err := NewParamsValidator(dir, []string{"pangle"})
	require.NoError(t, err)

	testCases := []struct {
		description string
		payload     string
	}{
		{"missing required field", `{"app_name":"My Game"}`},
		{"wrong enum value", `{"app_name":"My Game","platform":"web"}`},
		{"wrong type", `{"app_name":7,"platform":"android"}`},
	}

	for _, test := range testCases {
		err := validator.Validate("pangle", []byte(test.payload))
		require.Error(t, err, test.description)
		assert.IsType(t, &errortypes.BadInput{}, err, test.description)
	}
}

func TestParamsValidatorUnknownNetwork(t *testing.T) {
	dir := writeSchemas(t, "pangle")
	validator, err := NewParamsValidator(dir, []string{"pangle"})
	require.NoError(t, err)

	err = validator.Validate("doubleclick", []byte(`{}`))
	assert.IsType(t, &errortypes.UnknownNetwork{}, err)
}

func TestParamsValidatorRequiresSchemaPerNetwork(t *testing.T) {
	dir := writeSchemas(t, "pangle")
	_, err := NewParamsValidator(dir, []string{"pangle", "mintegral"})
	assert.Error(t, err, "a network without a schema file must fail at startup")
}

func TestParamsValidatorRejectsStrayFiles(t *testing.T) {
	dir := writeSchemas(t, "pangle", "stray")
	_, err := NewParamsValidator(dir, []string{"pangle"})
	assert.Error(t, err)
}

func TestParamsValidatorSchemaContents(t *testing.T) {
	dir := writeSchemas(t, "pangle")
	validator, err := NewParamsValidator(dir, []string{"pangle"})
	require.NoError(t, err)

	assert.JSONEq(t, testSchema, validator.Schema("pangle"))
}
