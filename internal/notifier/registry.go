package notifier

import (
	"sort"
	"sync"

	"raidbot/internal/transport"
)

// Registry maps chats to their alert destination. Mutated by explicit
// configuration commands and opportunistically by the delivery path
// (auto-discovery adds, permanent failures remove); last write wins.
type Registry struct {
	mu    sync.RWMutex
	dests map[int64]transport.ChatTarget
}

func NewRegistry(seed []transport.ChatTarget) *Registry {
	r := &Registry{dests: map[int64]transport.ChatTarget{}}
	for _, t := range seed {
		if t.ChatID != 0 {
			r.dests[t.ChatID] = t
		}
	}
	return r
}

func (r *Registry) Set(t transport.ChatTarget) {
	if t.ChatID == 0 {
		return
	}
	r.mu.Lock()
	r.dests[t.ChatID] = t
	r.mu.Unlock()
}

func (r *Registry) Remove(chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.dests[chatID]; !ok {
		return false
	}
	delete(r.dests, chatID)
	return true
}

func (r *Registry) Contains(chatID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.dests[chatID]
	return ok
}

// List returns the destinations in stable (chat id) order.
func (r *Registry) List() []transport.ChatTarget {
	r.mu.RLock()
	out := make([]transport.ChatTarget, 0, len(r.dests))
	for _, t := range r.dests {
		out = append(out, t)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ChatID < out[j].ChatID })
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.dests)
}
