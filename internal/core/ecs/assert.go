package ecs

import (
	"fmt"
	"runtime"

	"github.com/pkg/errors"
)

// AssertionError reports a broken caller contract: a pool accessor used on an
// entity that is not in the pool, an exhausted id space, and similar
// programmer errors. It is raised with panic and can be turned back into an
// error with Recover at a host boundary.
type AssertionError struct {
	Cond string
	File string
	Line int

	cause error
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s:%d: assertion failed: %s", e.File, e.Line, e.Cond)
}

func (e *AssertionError) Unwrap() error { return e.cause }

// Format prints the stack captured at the failing assertion for %+v.
func (e *AssertionError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "%s\n%+v", e.Error(), e.cause)
		return
	}
	fmt.Fprint(s, e.Error())
}

// Assert panics with an *AssertionError naming the caller when cond is false.
func Assert(cond bool, text string) {
	if cond {
		return
	}
	panic(newAssertion(text, 2))
}

// Assertf is Assert with a formatted condition text.
func Assertf(cond bool, format string, args ...any) {
	if cond {
		return
	}
	panic(newAssertion(fmt.Sprintf(format, args...), 2))
}

func newAssertion(text string, skip int) *AssertionError {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		file, line = "?", 0
	}
	return &AssertionError{
		Cond:  text,
		File:  file,
		Line:  line,
		cause: errors.New(text),
	}
}

// Recover converts an in-flight assertion panic into *errp. Any other panic
// is re-raised. Use it directly in a defer statement:
//
//	defer ecs.Recover(&err)
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if ae, ok := r.(*AssertionError); ok {
		*errp = ae
		return
	}
	panic(r)
}
