package notifier

import (
	"testing"

	"raidbot/internal/transport"
)

func TestPickFallbackKeywordPriority(t *testing.T) {
	chats := []transport.ChatInfo{
		{ID: 1, Title: "General", IsGroup: true},
		{ID: 2, Title: "bot-spam", IsGroup: true},
		{ID: 3, Title: "Raid Timers", IsGroup: true},
		{ID: 4, Title: "raid-chat", IsGroup: false}, // private, must be skipped
	}
	got, ok := PickFallback(chats)
	if !ok {
		t.Fatal("expected a fallback destination")
	}
	if got.ChatID != 3 {
		t.Fatalf("fallback chat = %d, want 3 (keyword match beats generic)", got.ChatID)
	}
}

func TestPickFallbackFirstGroupWhenNoKeyword(t *testing.T) {
	chats := []transport.ChatInfo{
		{ID: 10, Title: "DM with someone", IsGroup: false},
		{ID: 11, Title: "Random Chatter", IsGroup: true},
		{ID: 12, Title: "Another Group", IsGroup: true},
	}
	got, ok := PickFallback(chats)
	if !ok {
		t.Fatal("expected a fallback destination")
	}
	if got.ChatID != 11 {
		t.Fatalf("fallback chat = %d, want 11 (first group)", got.ChatID)
	}
}

func TestPickFallbackNothingQualifies(t *testing.T) {
	chats := []transport.ChatInfo{
		{ID: 20, Title: "raid dm", IsGroup: false},
	}
	if _, ok := PickFallback(chats); ok {
		t.Fatal("expected no fallback from private chats only")
	}
}

func TestRegistrySetRemoveList(t *testing.T) {
	r := NewRegistry([]transport.ChatTarget{{ChatID: 5}, {ChatID: 3}})
	r.Set(transport.ChatTarget{ChatID: 9, ThreadID: 2})
	r.Set(transport.ChatTarget{}) // zero chat id ignored

	got := r.List()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].ChatID != 3 || got[1].ChatID != 5 || got[2].ChatID != 9 {
		t.Fatalf("list not in chat id order: %+v", got)
	}
	if got[2].ThreadID != 2 {
		t.Fatalf("thread id lost: %+v", got[2])
	}

	if !r.Remove(5) {
		t.Fatal("expected Remove(5) to report true")
	}
	if r.Remove(5) {
		t.Fatal("expected second Remove(5) to report false")
	}
	if r.Contains(5) {
		t.Fatal("5 still present after remove")
	}
	if r.Len() != 2 {
		t.Fatalf("len after remove = %d, want 2", r.Len())
	}
}
