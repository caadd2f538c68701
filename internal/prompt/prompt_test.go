package prompt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsole_String(t *testing.T) {
	var out bytes.Buffer
	c := NewConsoleWith(strings.NewReader("AB12345\n"), &out)

	v, err := c.String("Indtast nummerplade")
	require.NoError(t, err)
	assert.Equal(t, "AB12345", v)
	assert.Contains(t, out.String(), "Indtast nummerplade: ")
}

func TestConsole_Float_CommaAndDot(t *testing.T) {
	var out bytes.Buffer
	c := NewConsoleWith(strings.NewReader("5,5\n7.25\n"), &out)

	v, err := c.Float("Indtast norm km")
	require.NoError(t, err)
	assert.Equal(t, 5.5, v)

	v, err = c.Float("Indtast norm km")
	require.NoError(t, err)
	assert.Equal(t, 7.25, v)
}

func TestConsole_Float_RepromptsOnGarbage(t *testing.T) {
	var out bytes.Buffer
	c := NewConsoleWith(strings.NewReader("ikke et tal\n42\n"), &out)

	v, err := c.Float("Indtast handelsprisen")
	require.NoError(t, err)
	assert.Equal(t, 42.0, v)
	assert.Contains(t, out.String(), "Ugyldigt tal")
}

func TestConsole_LastLineWithoutNewline(t *testing.T) {
	var out bytes.Buffer
	c := NewConsoleWith(strings.NewReader("XY99999"), &out)

	v, err := c.String("Indtast nummerplade")
	require.NoError(t, err)
	assert.Equal(t, "XY99999", v)
}

func TestScript(t *testing.T) {
	s := NewScript("AB12345", "95000", "60000")

	v, err := s.String("plade")
	require.NoError(t, err)
	assert.Equal(t, "AB12345", v)

	f, err := s.Float("pris")
	require.NoError(t, err)
	assert.Equal(t, 95000.0, f)

	f, err = s.Float("km")
	require.NoError(t, err)
	assert.Equal(t, 60000.0, f)

	_, err = s.String("en til")
	require.Error(t, err)
}
