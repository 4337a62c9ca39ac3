package util

import (
	"strings"
	"testing"
)

func TestTruncateRunes_ShortString(t *testing.T) {
	input := "short log"
	result := TruncateRunes(input, DefaultLogMaxLen)
	if result != input {
		t.Errorf("TruncateRunes() should not truncate short strings, got %q", result)
	}
}

func TestTruncateRunes_ExactLimit(t *testing.T) {
	input := "12345678901234567890" // 20 chars
	result := TruncateRunes(input, 20)
	if result != input {
		t.Errorf("TruncateRunes() should not truncate at exact limit, got %q", result)
	}
}

func TestTruncateRunes_LongString(t *testing.T) {
	input := "1234567890abcdefghij"
	result := TruncateRunes(input, 10)
	if result != "1234567890... [truncated, 20 chars total]" {
		t.Errorf("TruncateRunes() = %q", result)
	}
}

func TestTruncateRunes_MultiByte(t *testing.T) {
	input := "conversão de código"
	result := TruncateRunes(input, 9)
	if !strings.HasPrefix(result, "conversão...") {
		t.Errorf("TruncateRunes() split a rune: %q", result)
	}
}

func TestTruncateRunes_EmptyString(t *testing.T) {
	if result := TruncateRunes("", 10); result != "" {
		t.Errorf("TruncateRunes() should return empty for empty input, got %q", result)
	}
}

func TestPreview_FlattensNewlines(t *testing.T) {
	got := Preview("function add(a,b){\n\treturn a+b\n}")
	if strings.ContainsAny(got, "\n\t") {
		t.Errorf("Preview() kept control whitespace: %q", got)
	}
}

func TestRuneLen(t *testing.T) {
	if got := RuneLen("ação"); got != 4 {
		t.Errorf("RuneLen() = %d, want 4", got)
	}
}
