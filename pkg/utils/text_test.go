package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
	if got := Truncate("Zürich fintech", 3); got != "Zür..." {
		t.Errorf("multi-byte runes should not be split, got %q", got)
	}
}

func TestTruncateWords(t *testing.T) {
	if got := TruncateWords("smart farming IoT sensors", 2); got != "smart farming..." {
		t.Errorf("got %q", got)
	}
	if got := TruncateWords("smart farming", 5); got != "smart farming" {
		t.Errorf("got %q", got)
	}
}
