package description

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidName     = errors.New("invalid type name")
	ErrUnresolvedName  = errors.New("unresolved type name")
	ErrMalformedFormat = errors.New("malformed class file")
	ErrUnexpectedShape = errors.New("unexpected annotation array component type")
)

// InvalidNameError rejects a name before any lookup happens.
type InvalidNameError struct {
	Name   string
	Reason string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid type name %q: %s", e.Name, e.Reason)
}

func (e *InvalidNameError) Is(target error) bool { return target == ErrInvalidName }

// UnresolvedNameError reports a name the locator could not find.
type UnresolvedNameError struct {
	Name string
}

func (e *UnresolvedNameError) Error() string {
	return fmt.Sprintf("cannot locate type %s", e.Name)
}

func (e *UnresolvedNameError) Is(target error) bool { return target == ErrUnresolvedName }

// MalformedFormatError reports bytes that could not be read as a class file.
type MalformedFormatError struct {
	Name string
	Err  error
}

func (e *MalformedFormatError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("malformed class file: %v", e.Err)
	}
	return fmt.Sprintf("malformed class file for %s: %v", e.Name, e.Err)
}

func (e *MalformedFormatError) Unwrap() error { return e.Err }

func (e *MalformedFormatError) Is(target error) bool { return target == ErrMalformedFormat }

// UnexpectedShapeError reports an annotation array whose component type is
// neither a class literal, a string, an enum nor an annotation.
type UnexpectedShapeError struct {
	ComponentType string
}

func (e *UnexpectedShapeError) Error() string {
	return fmt.Sprintf("unexpected complex array component type %s", e.ComponentType)
}

func (e *UnexpectedShapeError) Is(target error) bool { return target == ErrUnexpectedShape }
