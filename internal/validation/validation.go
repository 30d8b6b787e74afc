// Package validation holds the checks that span a whole configuration
// document rather than a single section: which top-level sections may
// appear, which mode section decides the purpose, which sections a caller
// may select, and the invariants between parsed sections.
package validation

import (
	"strings"

	"github.com/harrison/songdeck/internal/document"
	"github.com/harrison/songdeck/internal/parser"
	"github.com/harrison/songdeck/internal/schema"
)

// CheckStructure rejects unknown top-level names, section names bound to
// something other than a table, and documents declaring both TRAIN and
// LEARNCURVE. It runs before any section is parsed.
func CheckStructure(doc *document.Document) error {
	for _, name := range doc.Names() {
		if _, ok := schema.ParseSection(name); !ok {
			return &parser.Error{
				Kind:    parser.KindStructural,
				Section: name,
				Message: "unknown section, valid sections are: " + sectionList(schema.Sections),
			}
		}
		if !doc.IsTable(name) {
			return &parser.Error{
				Kind:    parser.KindStructural,
				Section: name,
				Message: "section must be a table",
			}
		}
	}
	if doc.Has(string(schema.Train)) && doc.Has(string(schema.Learncurve)) {
		return &parser.Error{
			Kind:    parser.KindStructural,
			Message: "a config cannot contain both TRAIN and LEARNCURVE sections; use one or the other",
		}
	}
	return nil
}

// DerivePurpose returns explicit when it is set. Otherwise the first mode
// section present in the document, in precedence order, decides; a document
// without one has PurposeNone.
func DerivePurpose(doc *document.Document, explicit schema.Purpose) schema.Purpose {
	if explicit != schema.PurposeNone {
		return explicit
	}
	for _, s := range schema.PurposeSections {
		if doc.Has(string(s)) {
			p, _ := schema.PurposeOf(s)
			return p
		}
	}
	return schema.PurposeNone
}

// Selection resolves a section filter. An empty filter selects every
// section. Unknown names are a structural error.
func Selection(filter []string) (map[schema.Section]bool, error) {
	selected := make(map[schema.Section]bool, len(schema.Sections))
	if len(filter) == 0 {
		for _, s := range schema.Sections {
			selected[s] = true
		}
		return selected, nil
	}
	sections, err := schema.ParseSectionList(filter)
	if err != nil {
		return nil, &parser.Error{Kind: parser.KindStructural, Message: "invalid section filter", Err: err}
	}
	for _, s := range sections {
		selected[s] = true
	}
	return selected, nil
}

// CheckInvariants applies rules between sections. Only sections present in
// parsed are considered; a rule whose sections were not both parsed is
// skipped.
func CheckInvariants(parsed map[schema.Section]*parser.Values) error {
	for _, inv := range invariants {
		if err := inv(parsed); err != nil {
			return err
		}
	}
	return nil
}

type invariant func(map[schema.Section]*parser.Values) error

var invariants = []invariant{learncurveFitsTrainDur}

// learncurveFitsTrainDur requires every learning-curve training set to fit in
// the training split prep produces.
func learncurveFitsTrainDur(parsed map[schema.Section]*parser.Values) error {
	lc, prep := parsed[schema.Learncurve], parsed[schema.Prep]
	if lc == nil || prep == nil {
		return nil
	}
	trainDur := prep.OptionalFloat("train_dur")
	if trainDur == nil {
		return nil
	}
	durs := lc.Ints("train_set_durs")
	longest := 0
	for _, d := range durs {
		if d > longest {
			longest = d
		}
	}
	if float64(longest) > *trainDur {
		return parser.Errorf(parser.KindValue, string(schema.Learncurve), "train_set_durs",
			"largest training set duration %d s exceeds PREP train_dur of %g s", longest, *trainDur)
	}
	return nil
}

func sectionList(sections []schema.Section) string {
	names := make([]string, len(sections))
	for i, s := range sections {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
