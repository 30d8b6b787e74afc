// Package labelmap maps annotation labels to the consecutive integer classes
// models train on. Class 0 is reserved for the silent gaps between labeled
// segments.
package labelmap

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/harrison/songdeck/internal/filelock"
	"github.com/harrison/songdeck/internal/parser"
)

// SilentGapKey is the mapping key for unlabeled time between segments.
const SilentGapKey = "silent_gap_label"

// Filename is the name a mapping is saved under beside dataset artifacts.
const Filename = "labelmap.json"

// Map maps a label to its class.
type Map map[string]int

// Build maps labels to 1..n in order and SilentGapKey to silentGap. When
// intLabels is set every label must be an integer literal. The result must
// pass Validate.
func Build(labels []string, intLabels bool, silentGap int) (Map, error) {
	m := make(Map, len(labels)+1)
	for i, l := range labels {
		if intLabels {
			if _, err := strconv.Atoi(l); err != nil {
				return nil, parser.Errorf(parser.KindValue, "PREP", "labelset",
					"all_labels_are_int is true but label %q is not an integer", l)
			}
		}
		if l == SilentGapKey {
			return nil, parser.Errorf(parser.KindValue, "PREP", "labelset",
				"label %q is reserved", SilentGapKey)
		}
		if _, dup := m[l]; dup {
			return nil, parser.Errorf(parser.KindValue, "PREP", "labelset", "duplicate label %q", l)
		}
		m[l] = i + 1
	}
	m[SilentGapKey] = silentGap
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate requires the classes to be exactly 0..n, each used once, and
// SilentGapKey to be present.
func (m Map) Validate() error {
	if _, ok := m[SilentGapKey]; !ok {
		return parser.Errorf(parser.KindValue, "", "", "label mapping has no %q entry", SilentGapKey)
	}
	seen := make(map[int]string, len(m))
	for label, class := range m {
		if class < 0 || class >= len(m) {
			return parser.Errorf(parser.KindValue, "", "",
				"label mapping values must be consecutive integers 0..%d, %q maps to %d", len(m)-1, label, class)
		}
		if other, dup := seen[class]; dup {
			return parser.Errorf(parser.KindValue, "", "",
				"label mapping values must be unique, %q and %q both map to %d", other, label, class)
		}
		seen[class] = label
	}
	return nil
}

// Labels returns the labels other than SilentGapKey, ordered by class.
func (m Map) Labels() []string {
	labels := make([]string, 0, len(m))
	for l := range m {
		if l != SilentGapKey {
			labels = append(labels, l)
		}
	}
	sort.Slice(labels, func(i, j int) bool { return m[labels[i]] < m[labels[j]] })
	return labels
}

// Save writes m as JSON to path.
func (m Map) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode label mapping: %w", err)
	}
	if err := filelock.AtomicWrite(path, append(data, '\n')); err != nil {
		return fmt.Errorf("save label mapping: %w", err)
	}
	return nil
}

// Load reads and validates a mapping saved by Save.
func Load(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read label mapping: %w", err)
	}
	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode label mapping %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
