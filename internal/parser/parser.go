// Package parser turns one raw section of a configuration document into
// coerced, validated option values.
//
// Parse runs the same pipeline for every section: reject undeclared options,
// check required options for the active purpose, coerce raw values, fill
// defaults, apply the section's own rules, then check model names and
// filesystem paths. Cross-section checks live in the validation package.
package parser

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/harrison/songdeck/internal/schema"
)

// Registry is the set of installed model names.
type Registry interface {
	Has(name string) bool
	Names() []string
}

// Checker stats filesystem paths. Tests swap in fakes.
type Checker interface {
	Stat(path string) (fs.FileInfo, error)
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(path string) (fs.FileInfo, error)

// Stat calls f.
func (f CheckerFunc) Stat(path string) (fs.FileInfo, error) {
	return f(path)
}

// OSChecker stats the real filesystem.
var OSChecker Checker = CheckerFunc(os.Stat)

// Context carries what a section parse depends on besides the raw values.
type Context struct {
	Purpose schema.Purpose

	// Registry validates model-list options. Nil skips model checks.
	Registry Registry

	// Checker validates existing-file and existing-dir options.
	// Nil means OSChecker.
	Checker Checker

	// BaseDir resolves relative paths, normally the document's directory.
	BaseDir string
}

// Parse validates raw against sch and returns the coerced values.
// The first problem found is returned as an *Error.
func Parse(raw map[string]any, sch *schema.Schema, ctx Context) (*Values, error) {
	section := string(sch.Section)

	if err := checkDeclared(raw, sch); err != nil {
		return nil, err
	}

	for _, name := range schema.RequiredOptions(sch.Section, ctx.Purpose) {
		if _, ok := raw[name]; !ok {
			return nil, Errorf(KindMissingOption, section, name,
				"required when purpose is %s", ctx.Purpose)
		}
	}

	v := newValues(sch, ctx.Purpose)
	for _, opt := range sch.Options {
		rawVal, ok := raw[opt.Name]
		if !ok {
			v.values[opt.Name] = opt.DefaultValue(ctx.Purpose)
			continue
		}
		val, err := coerce(opt, rawVal)
		if err != nil {
			return nil, &Error{
				Kind:    KindType,
				Section: section,
				Option:  opt.Name,
				Value:   rawVal,
				Message: "expected " + opt.Kind.String(),
				Err:     err,
			}
		}
		v.values[opt.Name] = val
		v.set[opt.Name] = true
	}

	for _, rule := range sectionRules[sch.Section] {
		if err := rule(v); err != nil {
			return nil, err
		}
	}

	if ctx.Registry != nil {
		if err := checkModels(v, ctx.Registry); err != nil {
			return nil, err
		}
	}

	checker := ctx.Checker
	if checker == nil {
		checker = OSChecker
	}
	if err := checkPaths(v, checker, ctx.BaseDir); err != nil {
		return nil, err
	}

	return v, nil
}

func checkDeclared(raw map[string]any, sch *schema.Schema) error {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := sch.Option(name); !ok {
			return &Error{
				Kind:    KindInvalidOption,
				Section: string(sch.Section),
				Option:  name,
				Value:   raw[name],
				Message: "valid options are: " + strings.Join(sch.Names(), ", "),
			}
		}
	}
	return nil
}

// checkModels reports every unknown model name of every model-list option
// in a single error.
func checkModels(v *Values, reg Registry) error {
	for _, opt := range v.schema.Options {
		if opt.Kind != schema.KindModelList || !v.set[opt.Name] {
			continue
		}
		var missing []string
		for _, name := range v.Strings(opt.Name) {
			if !reg.Has(name) {
				missing = append(missing, name)
			}
		}
		if len(missing) == 0 {
			continue
		}
		installed := reg.Names()
		msg := "not installed: " + quoteJoin(missing) + "; installed models: "
		if len(installed) == 0 {
			msg += "(none)"
		} else {
			msg += strings.Join(installed, ", ")
		}
		return &Error{
			Kind:    KindModelNotInstalled,
			Section: string(v.section),
			Option:  opt.Name,
			Value:   missing,
			Message: msg,
		}
	}
	return nil
}

// checkPaths resolves path options against baseDir and verifies existence
// for existing-file and existing-dir kinds. Resolved paths replace the
// stored values.
func checkPaths(v *Values, checker Checker, baseDir string) error {
	for _, opt := range v.schema.Options {
		if !opt.Kind.IsPath() || !v.set[opt.Name] {
			continue
		}
		path := resolvePath(v.String(opt.Name), baseDir)
		v.values[opt.Name] = path

		switch opt.Kind {
		case schema.KindExistingFile:
			info, err := checker.Stat(path)
			if err != nil || info.IsDir() {
				msg := "no such file: " + path
				if err == nil {
					msg = "path is a directory: " + path
				}
				return &Error{
					Kind:    KindFileNotFound,
					Section: string(v.section),
					Option:  opt.Name,
					Value:   path,
					Message: msg,
				}
			}
		case schema.KindExistingDir:
			info, err := checker.Stat(path)
			if err != nil || !info.IsDir() {
				msg := "path is not a directory: " + path
				if err != nil {
					msg = "directory does not exist: " + path
				}
				return &Error{
					Kind:    KindNotADirectory,
					Section: string(v.section),
					Option:  opt.Name,
					Value:   path,
					Message: msg,
				}
			}
		}
	}
	return nil
}

func resolvePath(path, baseDir string) string {
	path = strings.TrimSpace(path)
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	return filepath.Clean(path)
}

func quoteJoin(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = `"` + n + `"`
	}
	return strings.Join(quoted, ", ")
}
