// Package document reads songdeck configuration documents.
//
// A Document is the decoded TOML file plus the original text and the order in
// which top-level keys were declared. Documents are immutable: WithOptions
// returns a new Document whose text is the original with a few lines
// rewritten, so comments and layout survive a prep run.
package document

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/harrison/songdeck/internal/filelock"
)

// Document is a decoded configuration document.
type Document struct {
	path  string
	text  []byte
	tree  map[string]any
	order []string
}

// Load reads and decodes the document at path.
func Load(path string) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(abs, data)
}

// Parse decodes data as a document that lives at path. The path is only
// used to resolve relative option values and to save the document.
func Parse(path string, data []byte) (*Document, error) {
	tree := make(map[string]any)
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&tree)
	if err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	var order []string
	seen := make(map[string]bool)
	for _, key := range md.Keys() {
		if len(key) == 0 || seen[key[0]] {
			continue
		}
		seen[key[0]] = true
		order = append(order, key[0])
	}

	return &Document{
		path:  path,
		text:  data,
		tree:  tree,
		order: order,
	}, nil
}

// Path returns the file the document was read from.
func (d *Document) Path() string {
	return d.path
}

// Dir returns the directory relative option paths are resolved against.
func (d *Document) Dir() string {
	if d.path == "" {
		return ""
	}
	return filepath.Dir(d.path)
}

// Bytes returns the document text.
func (d *Document) Bytes() []byte {
	return d.text
}

// Names returns the top-level keys in declaration order. Names that are not
// tables are included so callers can reject them.
func (d *Document) Names() []string {
	return append([]string(nil), d.order...)
}

// Has reports whether a top-level key named name exists.
func (d *Document) Has(name string) bool {
	_, ok := d.tree[name]
	return ok
}

// IsTable reports whether the top-level key name is a table.
func (d *Document) IsTable(name string) bool {
	_, ok := d.tree[name].(map[string]any)
	return ok
}

// Section returns the raw options of the table name. The returned map is a
// copy. It returns false when name is absent or not a table.
func (d *Document) Section(name string) (map[string]any, bool) {
	table, ok := d.tree[name].(map[string]any)
	if !ok {
		return nil, false
	}
	out := make(map[string]any, len(table))
	for k, v := range table {
		out[k] = v
	}
	return out, true
}

// headerRe matches a table header with a bare, basic-quoted or
// literal-quoted key. Array-of-tables headers are matched by arrayHeaderRe.
var (
	headerRe      = regexp.MustCompile(`^\s*\[\s*(?:([A-Za-z0-9_.-]+)|"([^"]*)"|'([^']*)')\s*\]\s*(#.*)?$`)
	arrayHeaderRe = regexp.MustCompile(`^\s*\[\[`)
)

// WithOptions returns a copy of the document where each option in values is
// set on the table section. Existing single-line assignments are replaced in
// place; new options are appended after the last assignment of the table. A
// missing table is appended to the end of the text. The rewritten text is
// decoded again and compared against values before it is returned.
func (d *Document) WithOptions(section string, values map[string]any) (*Document, error) {
	if len(values) == 0 {
		return d, nil
	}
	if d.Has(section) && !d.IsTable(section) {
		return nil, fmt.Errorf("rewrite %s: top-level key is not a table", section)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	assignments := make(map[string]string, len(keys))
	for _, k := range keys {
		line, err := encodeAssignment(k, values[k])
		if err != nil {
			return nil, fmt.Errorf("rewrite %s.%s: %w", section, k, err)
		}
		assignments[k] = line
	}

	lines := strings.Split(string(d.text), "\n")
	start, end := tableBounds(lines, section)

	if start < 0 {
		var b strings.Builder
		b.WriteString(strings.TrimRight(string(d.text), "\n"))
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%s]\n", section)
		for _, k := range keys {
			b.WriteString(assignments[k])
			b.WriteString("\n")
		}
		return d.verified(section, values, []byte(b.String()))
	}

	var pending []string
	for _, k := range keys {
		idx := findAssignment(lines[start+1:end], k)
		if idx < 0 {
			pending = append(pending, assignments[k])
			continue
		}
		lines[start+1+idx] = assignments[k]
	}

	if len(pending) > 0 {
		insertAt := start + 1
		for i := end - 1; i > start; i-- {
			trimmed := strings.TrimSpace(lines[i])
			if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
				insertAt = i + 1
				break
			}
		}
		rest := append(pending, lines[insertAt:]...)
		lines = append(lines[:insertAt], rest...)
	}

	return d.verified(section, values, []byte(strings.Join(lines, "\n")))
}

// Save writes the document back to its path while holding the document lock.
func (d *Document) Save(ctx context.Context) error {
	if d.path == "" {
		return fmt.Errorf("save config: document has no path")
	}
	if err := filelock.LockAndWrite(ctx, d.path, d.text); err != nil {
		return fmt.Errorf("save config %s: %w", d.path, err)
	}
	return nil
}

func (d *Document) verified(section string, values map[string]any, text []byte) (*Document, error) {
	out, err := Parse(d.path, text)
	if err != nil {
		return nil, fmt.Errorf("rewrite %s: %w", section, err)
	}
	got, _ := out.Section(section)
	for k, want := range values {
		if !sameValue(got[k], want) {
			return nil, fmt.Errorf("rewrite %s.%s: value did not survive re-decode", section, k)
		}
	}
	return out, nil
}

// tableBounds returns the header line of section and the index one past its
// last line. start is -1 when the table has no header.
func tableBounds(lines []string, section string) (start, end int) {
	start = -1
	for i, line := range lines {
		m := headerRe.FindStringSubmatch(line)
		if m == nil && !arrayHeaderRe.MatchString(line) {
			continue
		}
		if start >= 0 {
			return start, i
		}
		if m != nil && m[1]+m[2]+m[3] == section {
			start = i
		}
	}
	if start < 0 {
		return -1, -1
	}
	return start, len(lines)
}

func findAssignment(lines []string, key string) int {
	quoted := regexp.QuoteMeta(key)
	re := regexp.MustCompile(`^\s*(` + quoted + `|"` + quoted + `"|'` + quoted + `')\s*=`)
	for i, line := range lines {
		if re.MatchString(line) {
			return i
		}
	}
	return -1
}

func encodeAssignment(key string, value any) (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(map[string]any{key: value}); err != nil {
		return "", err
	}
	line := strings.TrimSpace(buf.String())
	if strings.Contains(line, "\n") {
		return "", fmt.Errorf("value does not fit on one line")
	}
	return line, nil
}

// sameValue compares a decoded TOML value against the value that was encoded.
// Decoding widens integers to int64, so numbers are compared by value.
func sameValue(decoded, want any) bool {
	switch w := want.(type) {
	case int:
		d, ok := decoded.(int64)
		return ok && d == int64(w)
	case float32:
		d, ok := decoded.(float64)
		return ok && d == float64(w)
	}
	return reflect.DeepEqual(decoded, want)
}
