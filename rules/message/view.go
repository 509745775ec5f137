// Package message defines the host-supplied message accessor contract
// (spec §4.5, §6.1). The engine never decodes a Telegram message
// itself; a host adapts its own decoded object to the View interface.
// This package also ships a plain in-memory Message and its View
// implementation, usable directly by hosts with a similar shape and
// exercised by this module's own tests.
package message

import (
	"strings"
	"unicode/utf8"

	"github.com/Hentioe/matchingram/rules/compiler"
	"github.com/Hentioe/matchingram/rules/schema"
)

// Kind tags the shape of a FieldValue. A view always reports one
// field as one scalar — lists only ever appear on the right-hand side
// of a rule condition (spec §3), never as something a message field
// itself holds.
type Kind int

const (
	KStr Kind = iota
	KNum
	KBool
	KPresent
)

// FieldValue is the tagged variant a View returns for one field (spec
// §4.5): the §3 Value variant, plus Bool and Present for fields the
// rule grammar only ever tests bare.
type FieldValue struct {
	Kind    Kind
	Str     string
	Num     compiler.NumAtom
	Bool    bool
	Present bool
}

// View is the accessor interface a host implements once per message
// object (spec §4.5). For a value-bearing field, Get returns ok=false
// when the field is missing, explicitly null, or empty; a Presence
// field instead reports ok=true with Present false. The matcher
// evaluates an operated condition on a missing field as false before
// negation is applied (spec §4.6).
type View interface {
	Get(id schema.FieldID) (FieldValue, bool)
}

// User mirrors the Telegram `from` / `new_chat_members` shape closely
// enough to exercise every `message.from.*` field in the schema.
type User struct {
	ID        int64
	IsBot     bool
	FirstName string
	LastName  string
	Username  string
}

// FullName implements spec §4.5's `full_name` synthesis.
func (u User) FullName() string {
	if u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.FirstName
}

// Chat mirrors the Telegram chat shape.
type Chat struct {
	ID    int64
	Title string
	Type  string
}

// Message is a plain, in-memory stand-in for a decoded Telegram
// message, used by this module's own tests and available to hosts
// whose object already looks like this.
type Message struct {
	Text    string
	Caption string
	From    *User
	Chat    *Chat

	NewChatMembers []User
	NewChatTitle   *string
	NewChatPhoto   []string
	PinnedMessage  *Message
	ReplyToMessage *Message
	ForwardFrom    *User
	Entities       []string
}

// IsServiceMessage implements spec §4.5's synthesis: true when any of
// new_chat_members, new_chat_title, new_chat_photo, or pinned_message
// is present.
func (m *Message) IsServiceMessage() bool {
	return len(m.NewChatMembers) > 0 || m.NewChatTitle != nil || len(m.NewChatPhoto) > 0 || m.PinnedMessage != nil
}

// IsCommand implements spec §4.5's synthesis: text begins with `/`
// followed by at least one identifier character.
func (m *Message) IsCommand() bool {
	if !strings.HasPrefix(m.Text, "/") {
		return false
	}
	rest := m.Text[1:]
	if rest == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// DefaultView adapts a *Message to View over schema.Default's field
// ids. Accesses are computed lazily field by field, matching spec
// §4.6's requirement that the view may be lazy and side-effecting for
// short-circuit observability.
type DefaultView struct {
	Msg *Message
}

// NewDefaultView wraps a message for one evaluation. Per spec §3's
// lifecycle, the returned View borrows Msg and must not outlive it.
func NewDefaultView(m *Message) *DefaultView {
	return &DefaultView{Msg: m}
}

func (v *DefaultView) Get(id schema.FieldID) (FieldValue, bool) {
	m := v.Msg
	switch schema.Default.Field(id).Path {
	case schema.PathText:
		return strVal(m.Text)
	case schema.PathTextSize:
		return sizeVal(m.Text)
	case schema.PathCaption:
		return strVal(m.Caption)
	case schema.PathCaptionSize:
		return sizeVal(m.Caption)
	case schema.PathFromID:
		if m.From == nil {
			return FieldValue{}, false
		}
		return intVal(m.From.ID)
	case schema.PathFromIsBot:
		if m.From == nil {
			return FieldValue{Kind: KBool, Bool: false}, true
		}
		return FieldValue{Kind: KBool, Bool: m.From.IsBot}, true
	case schema.PathFromFirstName:
		if m.From == nil {
			return FieldValue{}, false
		}
		return strVal(m.From.FirstName)
	case schema.PathFromLastName:
		if m.From == nil {
			return FieldValue{}, false
		}
		return strVal(m.From.LastName)
	case schema.PathFromFullName:
		if m.From == nil {
			return FieldValue{}, false
		}
		return strVal(m.From.FullName())
	case schema.PathFromUsername:
		if m.From == nil {
			return FieldValue{}, false
		}
		return strVal(m.From.Username)
	case schema.PathChatID:
		if m.Chat == nil {
			return FieldValue{}, false
		}
		return intVal(m.Chat.ID)
	case schema.PathChatTitle:
		if m.Chat == nil {
			return FieldValue{}, false
		}
		return strVal(m.Chat.Title)
	case schema.PathChatType:
		if m.Chat == nil {
			return FieldValue{}, false
		}
		return strVal(m.Chat.Type)
	case schema.PathNewChatMembers:
		return presentVal(len(m.NewChatMembers) > 0)
	case schema.PathNewChatTitle:
		return presentVal(m.NewChatTitle != nil && *m.NewChatTitle != "")
	case schema.PathNewChatPhoto:
		return presentVal(len(m.NewChatPhoto) > 0)
	case schema.PathPinnedMessage:
		return presentVal(m.PinnedMessage != nil)
	case schema.PathReplyToMessage:
		return presentVal(m.ReplyToMessage != nil)
	case schema.PathForwardFrom:
		return presentVal(m.ForwardFrom != nil)
	case schema.PathEntities:
		return presentVal(len(m.Entities) > 0)
	case schema.PathIsServiceMessage:
		return FieldValue{Kind: KBool, Bool: m.IsServiceMessage()}, true
	case schema.PathIsCommand:
		return FieldValue{Kind: KBool, Bool: m.IsCommand()}, true
	default:
		return FieldValue{}, false
	}
}

func strVal(s string) (FieldValue, bool) {
	if s == "" {
		return FieldValue{}, false
	}
	return FieldValue{Kind: KStr, Str: s}, true
}

func sizeVal(s string) (FieldValue, bool) {
	if s == "" {
		return FieldValue{}, false
	}
	return FieldValue{Kind: KNum, Num: compiler.NumAtom{IsFloat: false, I: int64(utf8.RuneCountInString(s))}}, true
}

func intVal(i int64) (FieldValue, bool) {
	return FieldValue{Kind: KNum, Num: compiler.NumAtom{IsFloat: false, I: i}}, true
}

func presentVal(present bool) (FieldValue, bool) {
	return FieldValue{Kind: KPresent, Present: present}, true
}
