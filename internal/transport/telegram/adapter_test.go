package telegram

import (
	"errors"
	"strings"
	"testing"

	tele "gopkg.in/telebot.v4"

	kit "raidbot/internal/transport"
)

func TestSplitTelegramTextShort(t *testing.T) {
	got := splitTelegramText("hello", 100, "")
	if len(got) != 1 || got[0] != "hello" {
		t.Fatalf("got %q", got)
	}
}

func TestSplitTelegramTextPrefersNewline(t *testing.T) {
	text := strings.Repeat("a", 60) + "\n" + strings.Repeat("b", 60)
	got := splitTelegramText(text, 100, "")
	if len(got) != 2 {
		t.Fatalf("chunks = %d, want 2", len(got))
	}
	if !strings.HasSuffix(got[0], "a") || !strings.HasPrefix(got[1], "b") {
		t.Fatalf("split not at newline: %q | %q", got[0], got[1])
	}
}

func TestSplitTelegramTextAvoidsDanglingTag(t *testing.T) {
	text := strings.Repeat("x", 95) + "<b>bold</b>"
	got := splitTelegramText(text, 100, "HTML")
	if strings.Contains(got[0], "<b") && !strings.Contains(got[0], ">") {
		t.Fatalf("first chunk ends inside a tag: %q", got[0])
	}
}

func TestMapSendErrForbidden(t *testing.T) {
	err := mapSendErr(&tele.Error{Code: 403, Description: "bot was kicked"})
	if !errors.Is(err, kit.ErrForbidden) {
		t.Fatalf("403 not mapped to ErrForbidden: %v", err)
	}

	plain := errors.New("network down")
	if got := mapSendErr(plain); got != plain {
		t.Fatalf("unrelated error mutated: %v", got)
	}
	bad := &tele.Error{Code: 400, Description: "bad request"}
	if errors.Is(mapSendErr(bad), kit.ErrForbidden) {
		t.Fatal("400 must not map to ErrForbidden")
	}
}

func TestTrackChatAndKnownChats(t *testing.T) {
	a := &Adapter{chats: map[int64]kit.ChatInfo{}}
	a.trackChat(&tele.Chat{ID: 1, Title: "Raid Timers", Type: tele.ChatSuperGroup})
	a.trackChat(&tele.Chat{ID: 2, Title: "", Type: tele.ChatPrivate})
	a.trackChat(&tele.Chat{ID: 1, Title: "Raid Timers v2", Type: tele.ChatSuperGroup})

	got := a.KnownChats()
	if len(got) != 2 {
		t.Fatalf("chats = %d, want 2", len(got))
	}
	byID := map[int64]kit.ChatInfo{}
	for _, c := range got {
		byID[c.ID] = c
	}
	if !byID[1].IsGroup || byID[1].Title != "Raid Timers v2" {
		t.Fatalf("chat 1 = %+v", byID[1])
	}
	if byID[2].IsGroup {
		t.Fatalf("private chat marked as group: %+v", byID[2])
	}
}
