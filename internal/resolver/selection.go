// Package resolver turns "pick an existing record or type a new name" input
// into creation payloads, creating referenced records first when a field is
// configured to do so.
package resolver

import (
	"fmt"
	"strings"
)

// Identified is anything with a server-assigned id.
type Identified interface {
	EntityID() int64
}

// Entity is a record that can be picked by name.
type Entity interface {
	Identified
	EntityName() string
}

// Kind says which variant a Selection holds.
type Kind int

const (
	None Kind = iota
	Existing
	Typed
)

func (k Kind) String() string {
	switch k {
	case Existing:
		return "existing"
	case Typed:
		return "typed"
	default:
		return "none"
	}
}

// Selection is the state of a reference field: an existing record, a typed
// name that matched nothing, or nothing at all.
type Selection[T Entity] struct {
	kind Kind
	item T
	text string
}

// Select picks an existing record.
func Select[T Entity](item T) Selection[T] {
	return Selection[T]{kind: Existing, item: item}
}

// Type holds free text. Whitespace-only text is None.
func Type[T Entity](text string) Selection[T] {
	text = strings.TrimSpace(text)
	if text == "" {
		return Selection[T]{}
	}
	return Selection[T]{kind: Typed, text: text}
}

// Empty is the None selection.
func Empty[T Entity]() Selection[T] {
	return Selection[T]{}
}

// Match resolves raw input against items: an exact name match selects that
// record, any other non-blank text is Typed.
func Match[T Entity](items []T, text string) Selection[T] {
	text = strings.TrimSpace(text)
	if text == "" {
		return Empty[T]()
	}
	for _, item := range items {
		if item.EntityName() == text {
			return Select(item)
		}
	}
	return Type[T](text)
}

// MatchAll applies Match to each input, dropping blank ones.
func MatchAll[T Entity](items []T, texts []string) []Selection[T] {
	var out []Selection[T]
	for _, text := range texts {
		if s := Match(items, text); s.Kind() != None {
			out = append(out, s)
		}
	}
	return out
}

func (s Selection[T]) Kind() Kind { return s.kind }

// Item returns the selected record when the selection is Existing.
func (s Selection[T]) Item() (T, bool) {
	return s.item, s.kind == Existing
}

// Text returns the typed text when the selection is Typed.
func (s Selection[T]) Text() string {
	if s.kind != Typed {
		return ""
	}
	return s.text
}

func (s Selection[T]) String() string {
	switch s.kind {
	case Existing:
		return fmt.Sprintf("%s (#%d)", s.item.EntityName(), s.item.EntityID())
	case Typed:
		return fmt.Sprintf("%q (new)", s.text)
	default:
		return "(none)"
	}
}

// Policy decides how a Typed reference reaches the server.
type Policy int

const (
	// ServerSide sends the name in the dependent payload and lets the
	// server find or create the record.
	ServerSide Policy = iota
	// Eager creates the record first and sends its id.
	Eager
)

func (p Policy) String() string {
	if p == Eager {
		return "eager"
	}
	return "server-side"
}
