// Package schema declares the static table of known field paths, their
// logical kinds, and the operators permitted against each one (spec
// §4.3). It is built once at init and never mutated; the compiler
// consults it, the matcher never does.
package schema

import "strings"

// Kind is a field's logical value kind.
type Kind int

const (
	Bool Kind = iota
	Presence
	String
	Int
	Float
	Composite
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Presence:
		return "presence"
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Composite:
		return "composite"
	default:
		return "unknown"
	}
}

// Op is one of the closed set of operators from spec §3.
type Op int

const (
	Eq Op = iota
	Gt
	Ge
	Le
	In
	Any
	All
	Hd
)

var opNames = map[string]Op{
	"eq":  Eq,
	"gt":  Gt,
	"ge":  Ge,
	"le":  Le,
	"in":  In,
	"any": Any,
	"all": All,
	"hd":  Hd,
}

// LookupOp resolves an operator word to its Op, reporting false for any
// word outside the closed set — including every retired alias
// (contains_one, contains_all, starts_with): they are never recognized,
// by design (spec §9).
func LookupOp(word string) (Op, bool) {
	op, ok := opNames[word]
	return op, ok
}

func (o Op) String() string {
	for name, op := range opNames {
		if op == o {
			return name
		}
	}
	return "?"
}

// FieldID indexes into the schema's field table.
type FieldID int

// Field describes one schema entry.
type Field struct {
	ID       FieldID
	Path     string
	Segments []string
	Kind     Kind
	Ops      map[Op]bool
}

// Allows reports whether op is permitted against this field.
func (f Field) Allows(op Op) bool {
	return f.Ops[op]
}

// BareOK reports whether the field may appear without an operator
// (spec §4.4 point 2): Bool, Presence, or Composite kinds.
func (f Field) BareOK() bool {
	switch f.Kind {
	case Bool, Presence, Composite:
		return true
	default:
		return false
	}
}

func opSet(ops ...Op) map[Op]bool {
	m := make(map[Op]bool, len(ops))
	for _, o := range ops {
		m[o] = true
	}
	return m
}

// Schema is the process-wide immutable field table.
type Schema struct {
	fields []Field
	byPath map[string]FieldID
}

// Field path constants, exported so hosts and the message view adapter
// can refer to fields by name instead of re-deriving path strings.
const (
	PathText             = "message.text"
	PathTextSize         = "message.text.size"
	PathCaption          = "message.caption"
	PathCaptionSize      = "message.caption.size"
	PathFromID           = "message.from.id"
	PathFromIsBot        = "message.from.is_bot"
	PathFromFirstName    = "message.from.first_name"
	PathFromLastName     = "message.from.last_name"
	PathFromFullName     = "message.from.full_name"
	PathFromUsername     = "message.from.username"
	PathChatID           = "message.chat.id"
	PathChatTitle        = "message.chat.title"
	PathChatType         = "message.chat.type"
	PathNewChatMembers   = "message.new_chat_members"
	PathNewChatTitle     = "message.new_chat_title"
	PathNewChatPhoto     = "message.new_chat_photo"
	PathPinnedMessage    = "message.pinned_message"
	PathReplyToMessage   = "message.reply_to_message"
	PathForwardFrom      = "message.forward_from"
	PathEntities         = "message.entities"
	PathIsServiceMessage = "message.is_service_message"
	PathIsCommand        = "message.is_command"
)

// Default is the built-in Telegram-shaped schema (spec §6.1's support
// matrix, transcribed verbatim as data, not scattered through the
// codebase per spec §9).
var Default = newDefault()

func newDefault() *Schema {
	defs := []struct {
		path string
		kind Kind
		ops  map[Op]bool
	}{
		{PathText, String, opSet(Eq, Any, All, Hd)},
		{PathTextSize, Int, opSet(Eq, Gt, Ge, Le, In)},
		{PathCaption, String, opSet(Eq, Any, All, Hd)},
		{PathCaptionSize, Int, opSet(Eq, Gt, Ge, Le, In)},
		{PathFromID, Int, opSet(Eq, Gt, Ge, Le, In)},
		{PathFromIsBot, Bool, opSet()},
		{PathFromFirstName, String, opSet(Eq, Any, All, Hd)},
		{PathFromLastName, String, opSet(Eq, Any, All, Hd)},
		{PathFromFullName, String, opSet(Eq, Any, All, Hd)},
		{PathFromUsername, String, opSet(Eq, In)},
		{PathChatID, Int, opSet(Eq, Gt, Ge, Le, In)},
		{PathChatTitle, String, opSet(Eq, Any, All, Hd)},
		{PathChatType, String, opSet(Eq, In)},
		{PathNewChatMembers, Presence, opSet()},
		{PathNewChatTitle, Presence, opSet()},
		{PathNewChatPhoto, Presence, opSet()},
		{PathPinnedMessage, Presence, opSet()},
		{PathReplyToMessage, Presence, opSet()},
		{PathForwardFrom, Presence, opSet()},
		{PathEntities, Presence, opSet()},
		{PathIsServiceMessage, Bool, opSet()},
		{PathIsCommand, Bool, opSet()},
	}

	s := &Schema{
		fields: make([]Field, 0, len(defs)),
		byPath: make(map[string]FieldID, len(defs)),
	}
	for i, d := range defs {
		id := FieldID(i)
		s.fields = append(s.fields, Field{
			ID:       id,
			Path:     d.path,
			Segments: strings.Split(d.path, "."),
			Kind:     d.kind,
			Ops:      d.ops,
		})
		s.byPath[d.path] = id
	}
	return s
}

// Lookup resolves a dotted field path to its Field, reporting false if
// the path is not in the schema. Lookup is O(path length) against the
// dotted-string map, per spec §4.3.
func (s *Schema) Lookup(path string) (Field, bool) {
	id, ok := s.byPath[path]
	if !ok {
		return Field{}, false
	}
	return s.fields[id], true
}

// Field returns the Field at id. id must have come from a successful
// Lookup against the same Schema; out-of-range id is a programmer
// error (spec §7).
func (s *Schema) Field(id FieldID) Field {
	if id < 0 || int(id) >= len(s.fields) {
		panic("schema: field id out of range")
	}
	return s.fields[id]
}

// Len reports the number of known fields.
func (s *Schema) Len() int {
	return len(s.fields)
}
