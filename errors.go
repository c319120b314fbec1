package phicore

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/robert-malhotra/phicore/hdf5"
)

// Kind classifies adapter errors and validation findings.
type Kind uint8

const (
	SchemaViolation Kind = iota + 1
	MissingNode
	NameCollision
	UnsupportedDType
)

func (k Kind) String() string {
	switch k {
	case SchemaViolation:
		return "schema violation"
	case MissingNode:
		return "missing node"
	case NameCollision:
		return "name collision"
	case UnsupportedDType:
		return "unsupported dtype"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Sentinels matching each Kind, for use with errors.Is.
var (
	ErrSchemaViolation  = errors.New("phicore: schema violation")
	ErrMissingNode      = errors.New("phicore: missing node")
	ErrNameCollision    = errors.New("phicore: name collision")
	ErrUnsupportedDType = errors.New("phicore: unsupported dtype")

	// ErrReadOnly is returned by write operations on a file opened with
	// ModeRead.
	ErrReadOnly = hdf5.ErrReadOnly
)

func (k Kind) sentinel() error {
	switch k {
	case SchemaViolation:
		return ErrSchemaViolation
	case MissingNode:
		return ErrMissingNode
	case NameCollision:
		return ErrNameCollision
	case UnsupportedDType:
		return ErrUnsupportedDType
	}
	return nil
}

// Error reports a problem with a node or attribute of a container.
type Error struct {
	Kind Kind
	Path string // node or attribute path, e.g. "/data/Sxyw@scales"
	Msg  string
	Err  error // underlying cause, if any
}

func (e *Error) Error() string {
	s := "phicore: " + e.Kind.String()
	if e.Path != "" {
		s += ": " + e.Path
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap exposes both the kind sentinel and the cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func errorf(kind Kind, path, format string, args ...any) *Error {
	return &Error{Kind: kind, Path: path, Msg: fmt.Sprintf(format, args...)}
}

// nodeError classifies an error from the hdf5 layer while opening path.
func nodeError(path string, err error) error {
	switch {
	case errors.Is(err, hdf5.ErrNotFound):
		return &Error{Kind: MissingNode, Path: path, Err: err}
	case errors.Is(err, hdf5.ErrNotDataset), errors.Is(err, hdf5.ErrNotGroup):
		return &Error{Kind: SchemaViolation, Path: path, Err: err}
	}
	return fmt.Errorf("phicore: %s: %w", path, err)
}

// Violation is one finding of Validate.
type Violation struct {
	Kind    Kind
	Path    string
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s: %s", v.Path, v.Kind, v.Message)
}

// Err returns the violation as an *Error.
func (v Violation) Err() error {
	return &Error{Kind: v.Kind, Path: v.Path, Msg: v.Message}
}

// ViolationsError combines violations into one error, nil if there are
// none. multierr.Errors recovers the individual errors.
func ViolationsError(vs []Violation) error {
	var err error
	for _, v := range vs {
		err = multierr.Append(err, v.Err())
	}
	return err
}
