package member

import (
	"context"
	"errors"
	"math"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gauge struct {
	Name  string `bridge:"name"`
	Level int    `bridge:"level;setLevel,setter,mode=worker"`
	Notes []string
	Feed  float64 `bridge:"feed,subscribe,mode=designated"`

	hidden int
}

func (g *gauge) Add(delta int) int {
	g.Level += delta
	return g.Level
}

func (g *gauge) Describe(ctx context.Context, prefix string) string {
	if ctx == nil {
		return "no context"
	}
	return prefix + g.Name
}

func (g *gauge) Sum(base int, more ...int) int {
	for _, m := range more {
		base += m
	}
	return base
}

func (g *gauge) Check(ok bool) (string, error) {
	if !ok {
		return "", errors.New("check failed")
	}
	return "ok", nil
}

func (g *gauge) Pair() (int, string) {
	return g.Level, g.Name
}

func (g *gauge) Explode() {
	panic("kaboom")
}

func (g *gauge) BridgeBindings() []Binding {
	return []Binding{
		{Member: "Add", Tag: "add"},
		{Member: "Describe"},
		{Member: "Sum", Mode: Worker},
		{Member: "Check", Kind: Subscribe},
		{Member: "Pair"},
		{Member: "Explode"},
	}
}

func handlesByTag(t *testing.T, hs []*Handle) map[string]*Handle {
	t.Helper()
	m := make(map[string]*Handle, len(hs))
	for _, h := range hs {
		m[h.Tag] = h
	}
	return m
}

func TestIntrospect(t *testing.T) {
	g := &gauge{Name: "g1"}
	hs, err := Introspect(g)
	require.NoError(t, err)

	byTag := handlesByTag(t, hs)
	require.Len(t, byTag, 10)

	tests := []struct {
		tag     string
		member  string
		kind    Kind
		mode    ThreadMode
		binding BindingKind
	}{
		{"name", "Name", KindFieldGetter, Caller, Direct},
		{"level", "Level", KindFieldGetter, Caller, Direct},
		{"setLevel", "Level", KindFieldSetter, Worker, Direct},
		{"feed", "Feed", KindFieldGetter, Designated, Subscribe},
		{"add", "Add", KindMethod, Caller, Direct},
		{"Describe", "Describe", KindMethod, Caller, Direct},
		{"Sum", "Sum", KindMethod, Worker, Direct},
		{"Check", "Check", KindMethod, Caller, Subscribe},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			h, ok := byTag[tt.tag]
			require.True(t, ok)
			assert.Equal(t, tt.member, h.Member)
			assert.Equal(t, tt.kind, h.Kind)
			assert.Equal(t, tt.mode, h.Mode)
			assert.Equal(t, tt.binding, h.Binding)
			assert.True(t, h.Alive())
		})
	}
}

func TestIntrospectExtraBindings(t *testing.T) {
	g := &gauge{}
	hs, err := Introspect(g, Binding{Member: "Notes", Tag: "notes"})
	require.NoError(t, err)
	_, ok := handlesByTag(t, hs)["notes"]
	assert.True(t, ok)
}

func TestIntrospectErrors(t *testing.T) {
	_, err := Introspect[gauge](nil)
	assert.ErrorIs(t, err, ErrNilObject)

	_, err = Introspect(&gauge{}, Binding{Member: "Missing"})
	assert.ErrorIs(t, err, ErrNoSuchMember)

	_, err = Introspect(&gauge{}, Binding{Member: "hidden"})
	assert.ErrorIs(t, err, ErrUnexported)

	_, err = Introspect(&gauge{}, Binding{Member: "Add", Mode: ThreadMode(42)})
	assert.ErrorIs(t, err, ErrInvalidMode)

	type badTag struct {
		X int `bridge:"x,sometimes"`
	}
	_, err = Introspect(&badTag{})
	assert.ErrorIs(t, err, ErrInvalidTag)

	type badMode struct {
		X int `bridge:"x,mode=elsewhere"`
	}
	_, err = Introspect(&badMode{})
	assert.ErrorIs(t, err, ErrInvalidMode)

	type unexportedTagged struct {
		x int `bridge:"x"`
	}
	_, err = Introspect(&unexportedTagged{})
	assert.ErrorIs(t, err, ErrUnexported)
}

func TestInvokeMethod(t *testing.T) {
	g := &gauge{Name: "g1", Level: 1}
	byTag := mustHandles(t, g)

	v, err := byTag["add"].Invoke(context.Background(), []any{4})
	require.NoError(t, err)
	assert.Equal(t, 5, v)
	assert.Equal(t, 5, g.Level)

	v, err = byTag["Describe"].Invoke(context.Background(), []any{"gauge:"})
	require.NoError(t, err)
	assert.Equal(t, "gauge:g1", v)

	v, err = byTag["Sum"].Invoke(context.Background(), []any{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 6, v)

	v, err = byTag["Sum"].Invoke(context.Background(), []any{1})
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = byTag["Pair"].Invoke(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []any{5, "g1"}, v)

	v, err = byTag["Check"].Invoke(context.Background(), []any{true})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestInvokeNilContextIsReplaced(t *testing.T) {
	g := &gauge{Name: "n"}
	//nolint:staticcheck // nil context on purpose
	v, err := mustHandles(t, g)["Describe"].Invoke(nil, []any{"x:"})
	require.NoError(t, err)
	assert.Equal(t, "x:n", v)
}

type meter struct {
	Label string
	Small int8    `bridge:"setSmall,setter"`
	Count int     `bridge:"setCount,setter"`
	Ratio float32 `bridge:"setRatio,setter"`
}

func (m *meter) Byte(b uint8) uint8 {
	return b
}

func TestInvokeNumericConversion(t *testing.T) {
	g := &gauge{}
	v, err := mustHandles(t, g)["add"].Invoke(context.Background(), []any{int64(3)})
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	m := &meter{Label: "m"}
	hs, err := Introspect(m, Binding{Member: "Byte", Tag: "byte"})
	require.NoError(t, err)
	byTag := handlesByTag(t, hs)

	tests := []struct {
		name   string
		tag    string
		arg    any
		target error
	}{
		{"int into int8", "setSmall", 100, nil},
		{"negative into int8", "setSmall", -128, nil},
		{"overflowing int8", "setSmall", 300, ErrArgumentType},
		{"whole float into int", "setCount", 4.0, nil},
		{"fractional float into int", "setCount", 3.9, ErrArgumentType},
		{"uint64 beyond int", "setCount", uint64(math.MaxUint64), ErrArgumentType},
		{"int into float32", "setRatio", 2, nil},
		{"overflowing float32", "setRatio", math.MaxFloat64, ErrArgumentType},
		{"int into uint8", "byte", 255, nil},
		{"negative into uint8", "byte", -1, ErrArgumentType},
		{"overflowing uint8", "byte", 256, ErrArgumentType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := byTag[tt.tag].Invoke(context.Background(), []any{tt.arg})
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
				return
			}
			assert.NoError(t, err)
		})
	}

	assert.Equal(t, int8(-128), m.Small)
	assert.Equal(t, 4, m.Count)
	assert.Equal(t, float32(2), m.Ratio)

	v, err = byTag["byte"].Invoke(context.Background(), []any{7})
	require.NoError(t, err)
	assert.Equal(t, uint8(7), v)
}

func TestInvokeFailures(t *testing.T) {
	g := &gauge{}
	byTag := mustHandles(t, g)

	tests := []struct {
		name   string
		tag    string
		args   []any
		target error
	}{
		{"returned error", "Check", []any{false}, nil},
		{"too few args", "add", nil, ErrArgumentCount},
		{"too many args", "add", []any{1, 2}, ErrArgumentCount},
		{"variadic too few", "Sum", nil, ErrArgumentCount},
		{"wrong type", "add", []any{"one"}, ErrArgumentType},
		{"panic", "Explode", nil, ErrPanic},
		{"setter without argument", "setLevel", nil, ErrMissingArgument},
		{"setter wrong type", "setLevel", []any{"high"}, ErrArgumentType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := byTag[tt.tag].Invoke(context.Background(), tt.args)
			require.Error(t, err)
			assert.Nil(t, v)

			var invErr *InvocationError
			require.ErrorAs(t, err, &invErr)
			assert.Equal(t, tt.tag, invErr.Tag)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestInvokeFields(t *testing.T) {
	g := &gauge{Name: "g", Level: 2}
	byTag := mustHandles(t, g)

	v, err := byTag["setLevel"].Invoke(context.Background(), []any{9})
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = byTag["level"].Invoke(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 9, v)

	// nil writes the zero value
	_, err = byTag["setLevel"].Invoke(context.Background(), []any{nil})
	require.NoError(t, err)
	assert.Equal(t, 0, g.Level)
}

func TestKeyIdentity(t *testing.T) {
	g := &gauge{}
	a := mustHandles(t, g)
	b := mustHandles(t, g)

	assert.Equal(t, a["Check"].Key(), b["Check"].Key())
	assert.NotEqual(t, a["Check"].Key(), a["add"].Key())

	other := mustHandles(t, &gauge{})
	assert.NotEqual(t, a["Check"].Key(), other["Check"].Key())

	assert.True(t, a["add"].OwnedBy(OwnerOf(g)))
	assert.False(t, other["add"].OwnedBy(OwnerOf(g)))
}

// sensor carries a pointer field so it is never tiny-allocated; weak pointers
// to tiny allocations can outlive the object.
type sensor struct {
	ID    string `bridge:"id"`
	Value *int
}

func markSensor(t *testing.T) *Handle {
	t.Helper()
	hs, err := Introspect(&sensor{ID: "s1"})
	require.NoError(t, err)
	require.Len(t, hs, 1)
	return hs[0]
}

func TestHandleDiesWithOwner(t *testing.T) {
	h := markSensor(t)

	assert.Eventually(t, func() bool {
		runtime.GC()
		return !h.Alive()
	}, 2*time.Second, 10*time.Millisecond)

	_, err := h.Invoke(context.Background(), nil)
	assert.ErrorIs(t, err, ErrDeadHandle)
}

func TestParseThreadMode(t *testing.T) {
	tests := []struct {
		in   string
		want ThreadMode
		err  bool
	}{
		{"", Caller, false},
		{"caller", Caller, false},
		{"Designated", Designated, false},
		{"ui", Designated, false},
		{"worker", Worker, false},
		{"pool", Worker, false},
		{"gpu", Caller, true},
	}
	for _, tt := range tests {
		got, err := ParseThreadMode(tt.in)
		if tt.err {
			assert.ErrorIs(t, err, ErrInvalidMode)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestStringers(t *testing.T) {
	assert.Equal(t, "method", KindMethod.String())
	assert.Equal(t, "setter", KindFieldSetter.String())
	assert.Equal(t, "designated", Designated.String())
	assert.Equal(t, "subscribe", Subscribe.String())

	h := mustHandles(t, &gauge{})["add"]
	assert.Equal(t, "add(method Add, caller)", h.String())
}

func mustHandles(t *testing.T, g *gauge) map[string]*Handle {
	t.Helper()
	hs, err := Introspect(g)
	require.NoError(t, err)
	return handlesByTag(t, hs)
}
