package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitByBytesShortText(t *testing.T) {
	assert.Equal(t, []string{"hello"}, splitByBytes("hello", 4096))
	assert.Equal(t, []string{""}, splitByBytes("", 10))
}

func TestSplitByBytesSplitsLongText(t *testing.T) {
	text := strings.Repeat("a", 25)
	parts := splitByBytes(text, 10)

	require.Len(t, parts, 3)
	assert.Equal(t, strings.Repeat("a", 10), parts[0])
	assert.Equal(t, strings.Repeat("a", 10), parts[1])
	assert.Equal(t, strings.Repeat("a", 5), parts[2])
	assert.Equal(t, text, strings.Join(parts, ""))
}

func TestSplitByBytesKeepsRunesWhole(t *testing.T) {
	text := strings.Repeat("é", 10)
	parts := splitByBytes(text, 5)

	assert.Equal(t, text, strings.Join(parts, ""))
	for _, p := range parts {
		assert.True(t, utf8.ValidString(p))
		assert.LessOrEqual(t, len(p), 5)
	}
}

func TestTruncateByBytes(t *testing.T) {
	assert.Equal(t, "abc", truncateByBytes("abc", 10))
	assert.Equal(t, "abcde", truncateByBytes("abcdefgh", 5))
}

func TestTruncateByBytesKeepsRunesWhole(t *testing.T) {
	got := truncateByBytes("ééé", 5)
	assert.Equal(t, "éé", got)
	assert.True(t, utf8.ValidString(got))
}

func TestNormalizeMIME(t *testing.T) {
	assert.Equal(t, "image/jpeg", normalizeMIME("image/jpeg"))
	assert.Equal(t, "image/png", normalizeMIME(" image/png; charset=binary "))
	assert.Equal(t, "", normalizeMIME(""))
}

func TestNewRejectsMissingDeps(t *testing.T) {
	_, err := New(Options{Token: ""})
	require.Error(t, err)

	_, err = New(Options{Token: "123:abc", HTTPClient: nil})
	require.Error(t, err)
}
