package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marriage-registry/pkg/certno"
	"marriage-registry/pkg/secrets"
)

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestParse(t *testing.T) {
	code, out, _ := runCLI("parse", "WB-MSD-BRW-I-1-C-2019-16-2020-21")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "volume letter: C")
	assert.Contains(t, out, "canonical:     WBMSDBRWI1C201916202021")
	assert.NotContains(t, out, "warning")

	code, out, _ = runCLI("parse", "-json", "WB-MSD-BRW-X-1-16-21")
	require.Equal(t, 0, code)
	var got parseOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, certno.FormLegacy, got.Form)
	assert.Equal(t, certno.Number{Book: "X", Volume: "1", Serial: "16", Page: "21"}, got.Number)
	assert.Equal(t, "WBMSDBRWX11621", got.Canonical)

	code, out, _ = runCLI("parse", "garbage")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "warning: input was not recognised")
}

func TestFormat(t *testing.T) {
	code, out, _ := runCLI("format", "-book", "xiv", "-volume", "1", "-volume-letter", "C", "-serial", "16", "-page", "21")
	require.Equal(t, 0, code)
	assert.Equal(t, "WBMSDBRWXIV1C1621\n", out)

	code, _, errOut := runCLI("format", "-book", "LI", "-page", "1")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "not a numeral")
}

func TestCanonical(t *testing.T) {
	code, out, _ := runCLI("canonical", "WB-MSD-BRW-I-1-16-21")
	require.Equal(t, 0, code)
	assert.Equal(t, "WBMSDBRWI11621\n", out)

	code, _, errOut := runCLI("canonical", "XX-1")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, certno.ErrUnrecognized.Error())
}

func TestBooks(t *testing.T) {
	code, out, _ := runCLI("books")
	require.Equal(t, 0, code)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, certno.MaxBook)
	assert.Equal(t, "50 L", lines[49])

	code, out, _ = runCLI("books", "-json")
	require.Equal(t, 0, code)
	var books []certno.Book
	require.NoError(t, json.Unmarshal([]byte(out), &books))
	assert.Equal(t, certno.Book{Ordinal: 4, Numeral: "IV"}, books[3])
}

func TestToken(t *testing.T) {
	code, out, _ := runCLI("token", "-json")
	require.Equal(t, 0, code)
	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, secrets.Matches(got["token"], got["hash"]))
}

func TestUsageErrors(t *testing.T) {
	code, _, _ := runCLI()
	assert.Equal(t, 2, code)

	code, _, errOut := runCLI("frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, `unknown command "frobnicate"`)

	code, _, _ = runCLI("parse")
	assert.Equal(t, 2, code)
}
