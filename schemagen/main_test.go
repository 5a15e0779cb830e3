package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/siegeai/shapecast/codegen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStdin(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"-d", "joi", "-indent", "4"}, strings.NewReader(`{"a": [1]}`), &out)
	require.NoError(t, err)
	assert.Equal(t, "Joi.object({\n    a: Joi.array().items(Joi.number().integer()).required()\n})\n", out.String())
}

func TestRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "body.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name": "ada"}`), 0o600))

	var out bytes.Buffer
	require.NoError(t, run([]string{"-examples", path}, strings.NewReader(""), &out))
	assert.Equal(t, "z.object({\n  name: z.string() /* e.g. \"ada\" */\n})\n", out.String())
}

func TestRunErrors(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"-d", "yup"}, strings.NewReader(`{}`), &out)
	assert.ErrorIs(t, err, codegen.ErrUnknownDialect)

	assert.Error(t, run([]string{"-indent", "0"}, strings.NewReader(`{}`), &out))
	assert.Error(t, run([]string{filepath.Join(t.TempDir(), "missing.json")}, strings.NewReader(""), &out))

	out.Reset()
	require.NoError(t, run(nil, strings.NewReader(`{"a": `), &out))
	assert.True(t, strings.HasPrefix(out.String(), "// Error: Failed to process JSON response\n"))
}
