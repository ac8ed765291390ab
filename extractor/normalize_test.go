package extractor

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		strip    bool
		expected string
	}{
		{"disabled keeps everything", "café\u200b\n", false, "café\u200b\n"},
		{"empty", "", true, ""},
		{"ascii untouched", "Hello, World! ~", true, "Hello, World! ~"},
		{"accents dropped", "café crème", true, "caf crme"},
		{"zero width space", "a\u200bb", true, "ab"},
		{"non breaking space", "a\u00a0b", true, "ab"},
		{"control characters", "line\nnext\ttab\r\x7f", true, "linenexttab"},
		{"emoji", "ok \U0001F600", true, "ok "},
		{"invalid utf8", "a\xffb", true, "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input, tt.strip))
		})
	}
}

func TestNormalizeIdentityWhenDisabled(t *testing.T) {
	f := func(s string) bool {
		return Normalize(s, false) == s
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestNormalizeOnlyPrintableASCII(t *testing.T) {
	f := func(s string) bool {
		out := Normalize(s, true)
		for i := 0; i < len(out); i++ {
			if out[i] < 0x20 || out[i] > 0x7E {
				return false
			}
		}
		return true
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	f := func(s string) bool {
		once := Normalize(s, true)
		return Normalize(once, true) == once
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestNormalizePreservesOrder(t *testing.T) {
	assert.Equal(t, "abc", Normalize("àaábâcã", true))
}
