// Package config loads a configuration document into typed section records.
//
// Loading runs in a fixed order: structural checks on the whole document,
// purpose derivation, one parser.Parse per present and selected section,
// then cross-section invariants. Errors are *parser.Error values, so callers
// can use errors.Is against the parser sentinels.
package config

import (
	"github.com/harrison/songdeck/internal/document"
	"github.com/harrison/songdeck/internal/parser"
	"github.com/harrison/songdeck/internal/schema"
	"github.com/harrison/songdeck/internal/validation"
)

// LoadOptions control how a document is loaded.
type LoadOptions struct {
	// Sections restricts parsing to the named sections. Names may be
	// comma-separated. Empty means every section present.
	Sections []string

	// Purpose overrides the purpose derived from the document.
	Purpose schema.Purpose

	// Registry validates model names. Nil skips model checks.
	Registry parser.Registry

	// Checker validates filesystem paths. Nil means the real filesystem.
	Checker parser.Checker
}

// Config is a loaded configuration document. A nil section pointer means
// the section was absent or filtered out. Train and Learncurve are never
// both set.
type Config struct {
	Path    string
	Purpose schema.Purpose

	Prep        *PrepConfig
	SpectParams *SpectParamsConfig
	DataLoader  *DataLoaderConfig
	Train       *TrainConfig
	Learncurve  *LearncurveConfig
	Eval        *EvalConfig
	Predict     *PredictConfig

	values map[schema.Section]*parser.Values
}

// FromPath reads the document at path and loads it.
func FromPath(path string, opts LoadOptions) (*Config, error) {
	doc, err := document.Load(path)
	if err != nil {
		return nil, err
	}
	return FromDocument(doc, opts)
}

// FromDocument loads an already decoded document.
func FromDocument(doc *document.Document, opts LoadOptions) (*Config, error) {
	if err := validation.CheckStructure(doc); err != nil {
		return nil, err
	}
	selected, err := validation.Selection(opts.Sections)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Path:    doc.Path(),
		Purpose: validation.DerivePurpose(doc, opts.Purpose),
		values:  make(map[schema.Section]*parser.Values),
	}

	for _, s := range schema.Sections {
		if !selected[s] || !doc.Has(string(s)) {
			continue
		}
		v, err := parseSection(doc, s, cfg.Purpose, opts)
		if err != nil {
			return nil, err
		}
		cfg.values[s] = v
		builders[s](cfg, v)
	}

	if err := validation.CheckInvariants(cfg.values); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseSection(doc *document.Document, s schema.Section, purpose schema.Purpose, opts LoadOptions) (*parser.Values, error) {
	sch, ok := schema.Lookup(s)
	if !ok {
		return nil, &parser.Error{Kind: parser.KindStructural, Section: string(s), Message: "no schema for section"}
	}
	raw, _ := doc.Section(string(s))
	return parser.Parse(raw, sch, parser.Context{
		Purpose:  purpose,
		Registry: opts.Registry,
		Checker:  opts.Checker,
		BaseDir:  doc.Dir(),
	})
}

// Values returns the parsed values of section, or nil if it was not parsed.
func (c *Config) Values(section schema.Section) *parser.Values {
	return c.values[section]
}

// Parsed lists the parsed sections in canonical order.
func (c *Config) Parsed() []schema.Section {
	var out []schema.Section
	for _, s := range schema.Sections {
		if c.values[s] != nil {
			out = append(out, s)
		}
	}
	return out
}

// ModeTrain returns the training options of the purpose section: TRAIN, or
// the TRAIN part of LEARNCURVE. It returns nil for other purposes.
func (c *Config) ModeTrain() *TrainConfig {
	switch {
	case c.Train != nil:
		return c.Train
	case c.Learncurve != nil:
		return &c.Learncurve.TrainConfig
	}
	return nil
}
