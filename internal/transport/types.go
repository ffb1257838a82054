// Package transport defines the platform-neutral types exchanged between the
// bot core and a chat adapter. The core never imports a concrete platform
// library; everything goes through the Adapter interface.
package transport

import (
	"context"
	"errors"
)

// ErrForbidden marks a permanent delivery failure for a destination
// (bot kicked, chat deleted, missing send permission). The notifier drops
// the destination from its registry when it sees this.
var ErrForbidden = errors.New("destination forbidden")

type UpdateKind string

const (
	UpdateMessage UpdateKind = "message"
)

type Update struct {
	Kind    UpdateKind
	Message *Message
}

type Message struct {
	ID           int
	ChatID       int64
	ThreadID     int // forum topic thread id (0 if none)
	FromID       int64
	FromUsername string
	Text         string
	IsGroup      bool
	ChatTitle    string
}

// ChatTarget identifies a delivery destination.
type ChatTarget struct {
	ChatID   int64
	ThreadID int
}

type MessageRef struct {
	ChatID    int64
	ThreadID  int
	MessageID int
}

type SendOptions struct {
	ParseMode      string // "HTML" or "" (plain)
	DisablePreview bool
}

// ChatInfo describes a chat the adapter has observed. Used by the notifier's
// destination auto-discovery fallback.
type ChatInfo struct {
	ID      int64
	Title   string
	IsGroup bool
}

type Adapter interface {
	Start(ctx context.Context, out chan<- Update) error
	Stop(ctx context.Context) error

	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
}

// ChatLister is an optional interface adapters can implement to expose the
// chats they have seen. Telegram bots cannot enumerate their chats through
// the API, so the adapter tracks them from incoming updates.
type ChatLister interface {
	KnownChats() []ChatInfo
}
