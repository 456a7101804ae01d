package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty string", input: "", expected: ""},
		{name: "simple string", input: "hello", expected: "hello"},
		{name: "double quotes are printable", input: `hello "world"`, expected: `hello "world"`},
		{name: "newline", input: "hello\nworld", expected: "hello\\x0Aworld"},
		{name: "tab", input: "hello\tworld", expected: "hello\\x09world"},
		{name: "nul byte", input: "hello\x00world", expected: "hello\\x00world"},
		{name: "invalid utf-8", input: "hello\x80world", expected: "hello\\x80world"},
		{name: "carriage return", input: "a\rb", expected: "a\\x0Db"},
		{name: "backslash", input: "hello\\world", expected: "hello\\world"},
		{name: "printable punctuation", input: "!@#$%^&*()_+=-[]{}|;':,.<>?", expected: "!@#$%^&*()_+=-[]{}|;':,.<>?"},
		{name: "non-ascii letter", input: "é", expected: "\\xC3\\xA9"},
		{name: "delete", input: "\x7f", expected: "\\x7F"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EscapeString(tt.input))
		})
	}
}
