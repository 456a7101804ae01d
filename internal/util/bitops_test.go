package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanEncodeImm(t *testing.T) {
	tests := []struct {
		name     string
		val      uint32
		expected bool
	}{
		{name: "zero", val: 0, expected: true},
		{name: "max 8-bit value", val: 0xff, expected: true},
		{name: "single bit above 8 bits", val: 0x100, expected: true},
		{name: "nine significant bits", val: 0x101, expected: false},
		{name: "byte shifted by even amount", val: 0x3fc, expected: true},
		{name: "byte shifted by odd amount", val: 0x1fe, expected: false},
		{name: "top byte", val: 0xff000000, expected: true},
		{name: "wraps around", val: 0xf000000f, expected: true},
		{name: "16-bit value", val: 0xffff, expected: false},
		{name: "all ones", val: 0xffffffff, expected: false},
		{name: "power of two", val: 0x10000, expected: true},
		{name: "two distant bits", val: 0x80000001, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CanEncodeImm(tt.val), "CanEncodeImm(%#x)", tt.val)
		})
	}
}

func TestSlice16bits(t *testing.T) {
	tests := []struct {
		name       string
		val        uint32
		offsetBits int
		expected   uint32
	}{
		{name: "zero value", val: 0, offsetBits: 0, expected: 0},
		{name: "low half", val: 0x12345678, offsetBits: 0, expected: 0x5678},
		{name: "high half", val: 0x12345678, offsetBits: 16, expected: 0x1234},
		{name: "middle bits", val: 0x12345678, offsetBits: 8, expected: 0x3456},
		{name: "value below 16 bits has empty high half", val: 0xbeef, offsetBits: 16, expected: 0},
		{name: "negative one", val: 0xffffffff, offsetBits: 16, expected: 0xffff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slice16bits(tt.val, tt.offsetBits))
		})
	}
}
