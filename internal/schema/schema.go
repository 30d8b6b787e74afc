// Package schema declares the sections of a songdeck configuration document
// and the options each section accepts.
//
// Schemas are static and read-only. A Schema lists option names, the kind
// each raw value is coerced to, and defaults. Required-ness lives in a
// separate table consulted through RequiredOptions, because whether an option
// is required can depend on the active Purpose.
package schema

import (
	"fmt"
	"strings"
)

// Section is the name of a top-level block in a configuration document.
type Section string

// Recognized sections. Any other top-level name is a load-time error.
const (
	Prep        Section = "PREP"
	SpectParams Section = "SPECT_PARAMS"
	DataLoader  Section = "DATALOADER"
	Train       Section = "TRAIN"
	Learncurve  Section = "LEARNCURVE"
	Eval        Section = "EVAL"
	Predict     Section = "PREDICT"
)

// Sections lists every recognized section in canonical order.
var Sections = []Section{Prep, SpectParams, DataLoader, Train, Learncurve, Eval, Predict}

// String returns the section name as written in documents.
func (s Section) String() string {
	return string(s)
}

// ParseSection returns the Section named by name.
// Section names are matched exactly; documents use upper case.
func ParseSection(name string) (Section, bool) {
	for _, s := range Sections {
		if string(s) == name {
			return s, true
		}
	}
	return "", false
}

// ParseSectionList parses names like "PREP, SPECT_PARAMS" into sections.
// Blank entries are ignored. An unknown name is an error.
func ParseSectionList(names []string) ([]Section, error) {
	var out []Section
	for _, raw := range names {
		for _, part := range strings.Split(raw, ",") {
			name := strings.TrimSpace(part)
			if name == "" {
				continue
			}
			s, ok := ParseSection(strings.ToUpper(name))
			if !ok {
				return nil, fmt.Errorf("invalid section name %q, must be one of: %s", name, joinSections(Sections))
			}
			out = append(out, s)
		}
	}
	return out, nil
}

func joinSections(sections []Section) string {
	names := make([]string, len(sections))
	for i, s := range sections {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// Purpose is the active pipeline mode. It decides which options are required
// and some defaults.
type Purpose string

const (
	// PurposeNone means no mode section is active, e.g. a prep-only document.
	PurposeNone       Purpose = ""
	PurposeTrain      Purpose = "train"
	PurposeLearncurve Purpose = "learncurve"
	PurposeEval       Purpose = "eval"
	PurposePredict    Purpose = "predict"
)

// PurposeSections lists the mode sections in the precedence order used to
// derive a Purpose from the sections present in a document.
var PurposeSections = []Section{Train, Learncurve, Eval, Predict}

// ParsePurpose converts a command or directive string into a Purpose.
func ParsePurpose(s string) (Purpose, error) {
	switch p := Purpose(strings.ToLower(strings.TrimSpace(s))); p {
	case PurposeNone, PurposeTrain, PurposeLearncurve, PurposeEval, PurposePredict:
		return p, nil
	default:
		return PurposeNone, fmt.Errorf("invalid purpose %q, must be one of: train, learncurve, eval, predict", s)
	}
}

// PurposeOf returns the Purpose a mode section stands for.
func PurposeOf(s Section) (Purpose, bool) {
	switch s {
	case Train:
		return PurposeTrain, true
	case Learncurve:
		return PurposeLearncurve, true
	case Eval:
		return PurposeEval, true
	case Predict:
		return PurposePredict, true
	}
	return PurposeNone, false
}

// Section returns the mode section for p. PurposeNone has none.
func (p Purpose) Section() (Section, bool) {
	switch p {
	case PurposeTrain:
		return Train, true
	case PurposeLearncurve:
		return Learncurve, true
	case PurposeEval:
		return Eval, true
	case PurposePredict:
		return Predict, true
	}
	return "", false
}

// String returns the purpose name, or "none".
func (p Purpose) String() string {
	if p == PurposeNone {
		return "none"
	}
	return string(p)
}

// Trains reports whether the purpose fits a model.
func (p Purpose) Trains() bool {
	return p == PurposeTrain || p == PurposeLearncurve
}

// Kind is the semantic type a raw option value is coerced to.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
	KindEnum
	// KindIntList is a comma-separated string or array of integers.
	KindIntList
	// KindOptionalInt is an integer or the literal None.
	KindOptionalInt
	// KindDuration is a non-negative number of seconds or None ("use all").
	KindDuration
	// KindLabelSet is a comma-separated list of labels, or a string whose
	// characters are each one label.
	KindLabelSet
	// KindModelList is a comma-separated list of installed model names.
	KindModelList
	KindPath
	KindExistingFile
	KindExistingDir
)

var kindNames = map[Kind]string{
	KindInt:          "int",
	KindFloat:        "float",
	KindBool:         "bool",
	KindString:       "string",
	KindEnum:         "enum",
	KindIntList:      "int-list",
	KindOptionalInt:  "optional-int",
	KindDuration:     "duration",
	KindLabelSet:     "labelset",
	KindModelList:    "model-list",
	KindPath:         "path",
	KindExistingFile: "existing-file",
	KindExistingDir:  "existing-dir",
}

// String returns the kind name used in error messages.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsPath reports whether values of this kind are filesystem paths.
func (k Kind) IsPath() bool {
	return k == KindPath || k == KindExistingFile || k == KindExistingDir
}

// Option declares one option of a section.
type Option struct {
	Name string
	Kind Kind

	// Default is the coerced value used when the option is absent.
	// Nil means the option stays unset.
	Default any

	// DefaultFor computes a purpose-dependent default. It takes precedence
	// over Default when set.
	DefaultFor func(Purpose) any

	// Choices lists the accepted values of a KindEnum option.
	Choices []string
}

// DefaultValue returns the default for purpose, or nil if there is none.
func (o Option) DefaultValue(purpose Purpose) any {
	if o.DefaultFor != nil {
		return o.DefaultFor(purpose)
	}
	return o.Default
}

// Schema is the option table for one section.
type Schema struct {
	Section Section
	Options []Option
	index   map[string]int
}

func newSchema(section Section, options ...Option) *Schema {
	s := &Schema{
		Section: section,
		Options: options,
		index:   make(map[string]int, len(options)),
	}
	for i, opt := range options {
		s.index[opt.Name] = i
	}
	return s
}

// Option returns the declaration of the named option.
func (s *Schema) Option(name string) (Option, bool) {
	i, ok := s.index[name]
	if !ok {
		return Option{}, false
	}
	return s.Options[i], true
}

// Names returns option names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.Options))
	for i, opt := range s.Options {
		names[i] = opt.Name
	}
	return names
}
