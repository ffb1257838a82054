package tgui

import (
	"strings"
	"testing"
)

func TestBuilderHTML(t *testing.T) {
	msg := New().
		Title("⚔️", "Upcoming Raids").
		KV("Map", "Valley <Of> Darkness").
		Blank().
		Line("plain & simple").
		Build()

	if !strings.Contains(msg.Text, "<b>Upcoming Raids</b>") {
		t.Fatalf("title not bold:\n%s", msg.Text)
	}
	if !strings.Contains(msg.Text, "Valley &lt;Of&gt; Darkness") {
		t.Fatalf("value not escaped:\n%s", msg.Text)
	}
	if !strings.Contains(msg.Text, "plain &amp; simple") {
		t.Fatalf("line not escaped:\n%s", msg.Text)
	}
	if msg.Opt == nil || msg.Opt.ParseMode != "HTML" || !msg.Opt.DisablePreview {
		t.Fatalf("opts = %+v", msg.Opt)
	}
	if len(msg.More) != 0 {
		t.Fatal("short message must not chunk")
	}
}

func TestBuilderPlainMode(t *testing.T) {
	msg := New().ParseMode("").Title("", "Hello <World>").Build()
	if msg.Text != "Hello <World>" {
		t.Fatalf("plain mode escaped: %q", msg.Text)
	}
}

func TestSplitLinesPrefersBoundaries(t *testing.T) {
	text := strings.TrimSuffix(strings.Repeat("aaaa\n", 10), "\n")
	chunks := SplitLines(text, 12)
	if len(chunks) != 5 {
		t.Fatalf("chunks = %d: %q", len(chunks), chunks)
	}
	for _, c := range chunks {
		if len(c) > 12 {
			t.Fatalf("chunk over limit: %q", c)
		}
		if strings.HasPrefix(c, "\n") || strings.HasSuffix(c, "\n") {
			t.Fatalf("chunk has dangling newline: %q", c)
		}
	}
	if got := strings.Join(chunks, ""); strings.ReplaceAll(got, "\n", "") != strings.ReplaceAll(text, "\n", "") {
		t.Fatal("content lost while splitting")
	}
}

func TestSplitLinesLongSingleLine(t *testing.T) {
	text := strings.Repeat("x", 25)
	chunks := SplitLines(text, 10)
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d: %q", len(chunks), chunks)
	}
	if chunks[0] != strings.Repeat("x", 10) || chunks[2] != strings.Repeat("x", 5) {
		t.Fatalf("chunks = %q", chunks)
	}
}

func TestSplitLinesShortAndEmpty(t *testing.T) {
	if got := SplitLines("", 10); got != nil {
		t.Fatalf("empty text: %q", got)
	}
	if got := SplitLines("hi", 10); len(got) != 1 || got[0] != "hi" {
		t.Fatalf("short text: %q", got)
	}
}
