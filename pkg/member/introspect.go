package member

import (
	"fmt"
	"reflect"
	"strings"
	"weak"
)

// StructTag is the struct tag key read by Introspect.
const StructTag = "bridge"

// OwnerOf returns the identity Introspect records for obj. Two calls with the
// same pointer return equal values, including after obj is collected.
func OwnerOf[T any](obj *T) any {
	return weak.Make(obj)
}

// Introspect enumerates the bound members of obj and builds a handle for each.
// Bindings come from `bridge` struct tags on exported fields, from
// BridgeBindings when obj implements Binder, and from extra. Handles hold obj
// weakly.
func Introspect[T any](obj *T, extra ...Binding) ([]*Handle, error) {
	if obj == nil {
		return nil, ErrNilObject
	}

	typ := reflect.TypeFor[*T]()

	var bindings []Binding
	if typ.Elem().Kind() == reflect.Struct {
		fb, err := FieldBindings(typ.Elem())
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, fb...)
	}
	if b, ok := any(obj).(Binder); ok {
		bindings = append(bindings, b.BridgeBindings()...)
	}
	bindings = append(bindings, extra...)

	wp := weak.Make(obj)
	resolve := func() any {
		if p := wp.Value(); p != nil {
			return p
		}
		return nil
	}

	handles := make([]*Handle, 0, len(bindings))
	for _, b := range bindings {
		h, err := newHandle(typ, b, wp, resolve)
		if err != nil {
			return nil, err
		}
		handles = append(handles, h)
	}
	return handles, nil
}

func newHandle(typ reflect.Type, b Binding, owner any, resolve func() any) (*Handle, error) {
	if b.Mode < Caller || b.Mode > Worker {
		return nil, fmt.Errorf("%w: %d on %s", ErrInvalidMode, b.Mode, b.Member)
	}

	tag := b.Tag
	if tag == "" {
		tag = b.Member
	}

	h := &Handle{
		Tag:     tag,
		Member:  b.Member,
		Mode:    b.Mode,
		Binding: b.Kind,
		owner:   owner,
		resolve: resolve,
	}

	if m, ok := typ.MethodByName(b.Member); ok {
		h.Kind = KindMethod
		h.index = []int{m.Index}
		return h, nil
	}

	elem := typ.Elem()
	if elem.Kind() == reflect.Struct {
		if f, ok := elem.FieldByName(b.Member); ok {
			if !f.IsExported() {
				return nil, fmt.Errorf("%w: %s.%s", ErrUnexported, elem, b.Member)
			}
			h.Kind = KindFieldGetter
			if b.Setter {
				h.Kind = KindFieldSetter
			}
			h.index = f.Index
			return h, nil
		}
	}

	return nil, fmt.Errorf("%w: %s.%s", ErrNoSuchMember, elem, b.Member)
}

// FieldBindings reads the `bridge` struct tags of a struct type.
//
// Tag syntax: `bridge:"tag,option,..."`. The tag defaults to the field name;
// `-` skips the field. Options are setter, getter, subscribe, direct and
// mode=caller|designated|worker. A `;` separates several bindings on the same
// field, e.g. `bridge:"count;setCount,setter"`.
func FieldBindings(typ reflect.Type) ([]Binding, error) {
	var bindings []Binding

	for _, f := range reflect.VisibleFields(typ) {
		raw, ok := f.Tag.Lookup(StructTag)
		if !ok || raw == "-" {
			continue
		}
		if !f.IsExported() {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnexported, typ, f.Name)
		}

		for _, spec := range strings.Split(raw, ";") {
			b, err := parseFieldTag(f.Name, spec)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", typ, f.Name, err)
			}
			bindings = append(bindings, b)
		}
	}
	return bindings, nil
}

func parseFieldTag(field, spec string) (Binding, error) {
	parts := strings.Split(spec, ",")
	b := Binding{
		Member: field,
		Tag:    strings.TrimSpace(parts[0]),
	}

	for _, opt := range parts[1:] {
		opt = strings.TrimSpace(opt)
		switch {
		case opt == "":
		case opt == "setter":
			b.Setter = true
		case opt == "getter":
			b.Setter = false
		case opt == "subscribe":
			b.Kind = Subscribe
		case opt == "direct":
			b.Kind = Direct
		case strings.HasPrefix(opt, "mode="):
			mode, err := ParseThreadMode(strings.TrimPrefix(opt, "mode="))
			if err != nil {
				return Binding{}, err
			}
			b.Mode = mode
		default:
			return Binding{}, fmt.Errorf("%w: unknown option %q", ErrInvalidTag, opt)
		}
	}
	return b, nil
}
