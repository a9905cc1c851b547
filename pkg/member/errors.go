package member

import (
	"errors"
	"fmt"
)

var (
	// ErrDeadHandle is returned when the owning object has been collected.
	ErrDeadHandle = errors.New("member: owning object no longer exists")

	ErrNilObject       = errors.New("member: nil object")
	ErrNoSuchMember    = errors.New("member: no such exported method or field")
	ErrUnexported      = errors.New("member: field is not exported")
	ErrInvalidMode     = errors.New("member: invalid thread mode")
	ErrInvalidTag      = errors.New("member: invalid bridge struct tag")
	ErrMissingArgument = errors.New("member: setter requires an argument")
	ErrArgumentCount   = errors.New("member: wrong number of arguments")
	ErrArgumentType    = errors.New("member: argument type mismatch")
	ErrPanic           = errors.New("member: invocation panicked")
)

// InvocationError reports a failure raised while invoking a member: a
// returned error, a bad argument, or a recovered panic.
type InvocationError struct {
	Tag    string
	Member string
	Err    error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("invoke %s (%s): %v", e.Tag, e.Member, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}
