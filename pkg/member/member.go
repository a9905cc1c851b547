package member

import (
	"fmt"
	"strings"
)

// Kind determines how a handle is invoked
type Kind int

const (
	// KindMethod calls an exported method.
	KindMethod Kind = iota
	// KindFieldGetter reads an exported field.
	KindFieldGetter
	// KindFieldSetter writes its first argument into an exported field.
	KindFieldSetter
)

func (k Kind) String() string {
	switch k {
	case KindMethod:
		return "method"
	case KindFieldGetter:
		return "getter"
	case KindFieldSetter:
		return "setter"
	default:
		return "unknown"
	}
}

// ThreadMode selects the execution context of an invocation
type ThreadMode int

const (
	// Caller runs the invocation synchronously on the calling goroutine.
	Caller ThreadMode = iota
	// Designated runs the invocation on the designated loop.
	Designated
	// Worker runs the invocation on the worker pool.
	Worker
)

func (m ThreadMode) String() string {
	switch m {
	case Caller:
		return "caller"
	case Designated:
		return "designated"
	case Worker:
		return "worker"
	default:
		return "unknown"
	}
}

// ParseThreadMode parses a mode name as used in struct tags.
func ParseThreadMode(s string) (ThreadMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "caller", "self":
		return Caller, nil
	case "designated", "main", "ui":
		return Designated, nil
	case "worker", "pool":
		return Worker, nil
	default:
		return Caller, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// BindingKind selects the namespace a handle is installed into
type BindingKind int

const (
	// Direct bindings map a tag to exactly one handle; the last one wins.
	Direct BindingKind = iota
	// Subscribe bindings add the handle to the tag's subscriber set.
	Subscribe
)

func (b BindingKind) String() string {
	switch b {
	case Direct:
		return "direct"
	case Subscribe:
		return "subscribe"
	default:
		return "unknown"
	}
}

// Binding is the registration configuration attached to one member.
type Binding struct {
	// Member is the exported method or field name.
	Member string
	// Tag defaults to Member when empty.
	Tag    string
	Mode   ThreadMode
	Setter bool
	Kind   BindingKind
}

// Binder is implemented by objects that declare method bindings. Go methods
// carry no tags, so this is the method-side counterpart of `bridge` struct
// tags on fields.
type Binder interface {
	BridgeBindings() []Binding
}

// Key is the identity of a handle for subscriber deduplication.
type Key struct {
	Tag    string
	Owner  any
	Member string
	Kind   Kind
}

// Handle is an invocable reference to a method or field of one object. The
// handle holds its owner weakly; once the owner is collected the handle is
// dead and every invocation fails with ErrDeadHandle.
type Handle struct {
	Tag     string
	Member  string
	Kind    Kind
	Mode    ThreadMode
	Binding BindingKind

	owner   any
	resolve func() any
	index   []int
}

// Target returns the owning object if it is still alive.
func (h *Handle) Target() (any, bool) {
	t := h.resolve()
	return t, t != nil
}

// Alive reports whether the owning object still exists.
func (h *Handle) Alive() bool {
	_, ok := h.Target()
	return ok
}

// Key returns the handle's identity.
func (h *Handle) Key() Key {
	return Key{Tag: h.Tag, Owner: h.owner, Member: h.Member, Kind: h.Kind}
}

// OwnedBy reports whether the handle belongs to the object identified by
// owner, as returned by OwnerOf.
func (h *Handle) OwnedBy(owner any) bool {
	return h.owner == owner
}

func (h *Handle) String() string {
	return fmt.Sprintf("%s(%s %s, %s)", h.Tag, h.Kind, h.Member, h.Mode)
}
