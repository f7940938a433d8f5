// Package errs is the error model shared by the seatable client, the node
// services and the HTTP surface.
//
// Errors are built with E, which accepts its arguments in any order:
//
//	errs.E(op, errs.Validation, errs.Parameter("table_name"), err)
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Op describes an operation, usually as the package and method,
// such as "seatable.Session.Request".
type Op string

// Parameter is the name of the input value that caused the error.
type Parameter string

// Kind defines the kind of error this is.
type Kind uint8

const (
	Other           Kind = iota // Unclassified error.
	Internal                    // Internal error or inconsistency.
	IO                          // External I/O error such as a failing remote API.
	Database                    // Error from the cursor database.
	InvalidRequest              // Malformed request from the host.
	Validation                  // Input or response failed validation.
	Unauthenticated             // Missing or unusable credentials.
	Unauthorized                // Credentials lack access.
	NotExist                    // Item does not exist.
)

func (k Kind) String() string {
	switch k {
	case Other:
		return "other_error"
	case Internal:
		return "internal_error"
	case IO:
		return "io_error"
	case Database:
		return "database_error"
	case InvalidRequest:
		return "invalid_request_error"
	case Validation:
		return "validation_error"
	case Unauthenticated:
		return "unauthenticated_error"
	case Unauthorized:
		return "unauthorized_error"
	case NotExist:
		return "not_exist_error"
	}

	return "unknown_error"
}

// Error is the type that implements the error interface.
type Error struct {
	Op    Op
	Kind  Kind
	Param Parameter
	Err   error
}

func (e *Error) Error() string {
	parts := make([]string, 0, 4)

	if e.Op != "" {
		parts = append(parts, string(e.Op))
	}

	if e.Kind != Other {
		parts = append(parts, e.Kind.String())
	}

	if e.Param != "" {
		parts = append(parts, "parameter "+string(e.Param))
	}

	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds an error value from its arguments. There must be at least one
// argument or E panics. The type of each argument determines its meaning;
// if more than one argument of a given type is presented, only the last
// one is recorded.
//
// If the error is printed, only those items that have been set to non-zero
// values will appear in the result.
//
// If Kind is not specified or Other, we set it to the Kind of the
// underlying error.
func E(args ...interface{}) error {
	if len(args) == 0 {
		panic("call to errs.E with no arguments")
	}

	e := &Error{}

	for _, arg := range args {
		switch arg := arg.(type) {
		case Op:
			e.Op = arg
		case string:
			e.Op = Op(arg)
		case Kind:
			e.Kind = arg
		case Parameter:
			e.Param = arg
		case *Error:
			errorCopy := *arg
			e.Err = &errorCopy
		case error:
			e.Err = arg
		case nil:
			continue
		default:
			return fmt.Errorf("unknown type %T, value %v in error call", arg, arg)
		}
	}

	prev, ok := e.Err.(*Error)
	if !ok {
		return e
	}

	// The previous error was also one of ours. Suppress duplications
	// so the message won't contain the same kind or parameter twice.
	if e.Kind == Other {
		e.Kind = prev.Kind
	}

	if prev.Kind == e.Kind {
		prev.Kind = Other
	}

	if e.Param == "" {
		e.Param = prev.Param
	}

	if prev.Param == e.Param {
		prev.Param = ""
	}

	return e
}

// Str returns an error that formats as the given text.
func Str(text string) error {
	return errors.New(text)
}

// KindIs reports whether err is an *Error of the given Kind.
// If err is nil then KindIs returns false.
func KindIs(kind Kind, err error) bool {
	var e *Error

	if !errors.As(err, &e) {
		return false
	}

	if e.Kind != Other {
		return e.Kind == kind
	}

	if e.Err != nil {
		return KindIs(kind, e.Err)
	}

	return false
}

// OpStack returns the chain of operations recorded in err, outermost first.
func OpStack(err error) []string {
	var ops []string

	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			break
		}

		if e.Op != "" {
			ops = append(ops, string(e.Op))
		}

		err = e.Err
	}

	return ops
}
