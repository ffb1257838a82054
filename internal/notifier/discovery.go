package notifier

import (
	"strings"

	"raidbot/internal/transport"
)

// fallbackKeywords is the discovery priority order: a chat whose title
// contains an earlier keyword wins over any later match.
var fallbackKeywords = []string{"raid", "timer", "alert", "dsr", "digimon", "bot"}

// PickFallback chooses an alert destination from the chats the adapter has
// seen: first group chat matching a keyword (in keyword priority order),
// else the first group chat. Returns false when nothing qualifies.
func PickFallback(chats []transport.ChatInfo) (transport.ChatTarget, bool) {
	for _, kw := range fallbackKeywords {
		for _, c := range chats {
			if !c.IsGroup {
				continue
			}
			if strings.Contains(strings.ToLower(c.Title), kw) {
				return transport.ChatTarget{ChatID: c.ID}, true
			}
		}
	}
	for _, c := range chats {
		if c.IsGroup {
			return transport.ChatTarget{ChatID: c.ID}, true
		}
	}
	return transport.ChatTarget{}, false
}
