package member

import (
	"context"
	"fmt"
	"math"
	"reflect"
)

var (
	errorType   = reflect.TypeFor[error]()
	contextType = reflect.TypeFor[context.Context]()
)

// Invoke calls the method, reads the field, or writes args[0] into the field,
// depending on the handle's Kind. Setters return a nil result. A method whose
// first parameter is a context.Context receives ctx; a trailing error result
// becomes the returned error. Panics raised by the member are recovered and
// reported as an InvocationError wrapping ErrPanic.
func (h *Handle) Invoke(ctx context.Context, args []any) (result any, err error) {
	target := h.resolve()
	if target == nil {
		return nil, fmt.Errorf("%w: %s", ErrDeadHandle, h.Tag)
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = h.fail(fmt.Errorf("%w: %v", ErrPanic, r))
		}
	}()

	v := reflect.ValueOf(target)

	switch h.Kind {
	case KindMethod:
		result, err = h.call(ctx, v.Method(h.index[0]), args)
		if err != nil {
			return nil, h.fail(err)
		}
		return result, nil

	case KindFieldGetter:
		return v.Elem().FieldByIndex(h.index).Interface(), nil

	case KindFieldSetter:
		if len(args) < 1 {
			return nil, h.fail(ErrMissingArgument)
		}
		field := v.Elem().FieldByIndex(h.index)
		val, err := convert(args[0], field.Type())
		if err != nil {
			return nil, h.fail(err)
		}
		field.Set(val)
		return nil, nil

	default:
		return nil, h.fail(fmt.Errorf("unknown member kind %d", h.Kind))
	}
}

func (h *Handle) fail(err error) error {
	return &InvocationError{Tag: h.Tag, Member: h.Member, Err: err}
}

func (h *Handle) call(ctx context.Context, fn reflect.Value, args []any) (any, error) {
	ft := fn.Type()
	in := make([]reflect.Value, 0, ft.NumIn())

	first := 0
	if ft.NumIn() > 0 && ft.In(0) == contextType {
		if ctx == nil {
			ctx = context.Background()
		}
		in = append(in, reflect.ValueOf(ctx))
		first = 1
	}

	fixed := ft.NumIn() - first
	if ft.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, fmt.Errorf("%w: want at least %d, got %d", ErrArgumentCount, fixed, len(args))
		}
	} else if len(args) != fixed {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrArgumentCount, fixed, len(args))
	}

	for i, arg := range args {
		var pt reflect.Type
		if ft.IsVariadic() && i >= fixed {
			pt = ft.In(ft.NumIn() - 1).Elem()
		} else {
			pt = ft.In(first + i)
		}
		val, err := convert(arg, pt)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		in = append(in, val)
	}

	return results(fn.Call(in))
}

func results(out []reflect.Value) (any, error) {
	var err error
	if n := len(out); n > 0 && out[n-1].Type() == errorType {
		if e := out[n-1]; !e.IsNil() {
			err = e.Interface().(error)
		}
		out = out[:n-1]
	}

	switch len(out) {
	case 0:
		return nil, err
	case 1:
		return out[0].Interface(), err
	}

	vals := make([]any, len(out))
	for i, o := range out {
		vals[i] = o.Interface()
	}
	return vals, err
}

// convert adapts arg to t. nil becomes the zero value; numeric kinds convert
// between each other only when the value survives unchanged; anything else
// must be assignable.
func convert(arg any, t reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(t), nil
	}

	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if numeric(v.Kind()) && numeric(t.Kind()) {
		if !fits(v, t) {
			return reflect.Value{}, fmt.Errorf("%w: %v does not fit in %s", ErrArgumentType, arg, t)
		}
		return v.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: %s is not assignable to %s", ErrArgumentType, v.Type(), t)
}

// fits reports whether the numeric value v converts to t without overflow,
// sign loss or truncation of a fractional part.
func fits(v reflect.Value, t reflect.Type) bool {
	dst := reflect.Zero(t)

	switch {
	case signed(t.Kind()):
		switch {
		case signed(v.Kind()):
			return !dst.OverflowInt(v.Int())
		case unsigned(v.Kind()):
			return v.Uint() <= math.MaxInt64 && !dst.OverflowInt(int64(v.Uint()))
		default:
			f := v.Float()
			return integral(f) && f >= math.MinInt64 && f < math.MaxInt64 && !dst.OverflowInt(int64(f))
		}

	case unsigned(t.Kind()):
		switch {
		case signed(v.Kind()):
			return v.Int() >= 0 && !dst.OverflowUint(uint64(v.Int()))
		case unsigned(v.Kind()):
			return !dst.OverflowUint(v.Uint())
		default:
			f := v.Float()
			return integral(f) && f >= 0 && f < math.MaxUint64 && !dst.OverflowUint(uint64(f))
		}

	default:
		switch {
		case signed(v.Kind()):
			return !dst.OverflowFloat(float64(v.Int()))
		case unsigned(v.Kind()):
			return !dst.OverflowFloat(float64(v.Uint()))
		default:
			return !dst.OverflowFloat(v.Float())
		}
	}
}

func integral(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f)
}

func signed(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	default:
		return false
	}
}

func unsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	default:
		return false
	}
}

func numeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
