package parser

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a configuration error.
type Kind int

const (
	// KindStructural is a problem with the document layout itself, such as
	// an unknown section or two mode sections that cannot coexist.
	KindStructural Kind = iota
	// KindInvalidOption is an option the section does not declare.
	KindInvalidOption
	// KindMissingOption is a required option that is absent.
	KindMissingOption
	// KindType is a raw value that cannot be coerced to the option kind.
	KindType
	// KindFileNotFound is an existing-file option naming a missing file.
	KindFileNotFound
	// KindNotADirectory is an existing-dir option naming something that is
	// not a directory.
	KindNotADirectory
	// KindModelNotInstalled is a model name absent from the registry.
	KindModelNotInstalled
	// KindMutualExclusion covers mutually exclusive and dependent options.
	KindMutualExclusion
	// KindValue is a well-typed value that breaks a rule, e.g. a label
	// mapping with gaps or a cross-section invariant.
	KindValue
)

// Sentinels for errors.Is. Every *Error unwraps to the sentinel of its Kind.
var (
	ErrStructural        = errors.New("invalid config structure")
	ErrInvalidOption     = errors.New("invalid option")
	ErrMissingOption     = errors.New("missing required option")
	ErrType              = errors.New("invalid option value type")
	ErrFileNotFound      = errors.New("file not found")
	ErrNotADirectory     = errors.New("not a directory")
	ErrModelNotInstalled = errors.New("model not installed")
	ErrMutualExclusion   = errors.New("conflicting options")
	ErrValue             = errors.New("invalid option value")
)

var sentinels = map[Kind]error{
	KindStructural:        ErrStructural,
	KindInvalidOption:     ErrInvalidOption,
	KindMissingOption:     ErrMissingOption,
	KindType:              ErrType,
	KindFileNotFound:      ErrFileNotFound,
	KindNotADirectory:     ErrNotADirectory,
	KindModelNotInstalled: ErrModelNotInstalled,
	KindMutualExclusion:   ErrMutualExclusion,
	KindValue:             ErrValue,
}

// String returns a short kind name.
func (k Kind) String() string {
	switch k {
	case KindStructural:
		return "structural"
	case KindInvalidOption:
		return "invalid-option"
	case KindMissingOption:
		return "missing-option"
	case KindType:
		return "type"
	case KindFileNotFound:
		return "file-not-found"
	case KindNotADirectory:
		return "not-a-directory"
	case KindModelNotInstalled:
		return "model-not-installed"
	case KindMutualExclusion:
		return "mutual-exclusion"
	case KindValue:
		return "value"
	default:
		return "unknown"
	}
}

// Error is a configuration error. Section and Option are empty when the
// error is not tied to one of them.
type Error struct {
	Kind    Kind
	Section string
	Option  string
	Value   any    // offending raw value, if any
	Message string // human-readable detail
	Err     error  // underlying cause, if any
}

// Errorf builds an *Error with a formatted message.
func Errorf(kind Kind, section, option string, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Section: section,
		Option:  option,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(sentinels[e.Kind].Error())
	switch {
	case e.Section != "" && e.Option != "":
		fmt.Fprintf(&sb, " in section [%s], option %q", e.Section, e.Option)
	case e.Section != "":
		fmt.Fprintf(&sb, " in section [%s]", e.Section)
	case e.Option != "":
		fmt.Fprintf(&sb, ", option %q", e.Option)
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	errs := []error{sentinels[e.Kind]}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// AsError returns err as an *Error if one is in its chain.
func AsError(err error) (*Error, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
