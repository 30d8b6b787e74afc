// Package models is the registry of installed models.
//
// A model is described by a card: a markdown file with YAML frontmatter
// naming the model and the entrypoint command that runs it. Two cards ship
// with songdeck; users install more by dropping cards into the models
// directory under the songdeck home.
package models

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

//go:embed cards/*.md
var builtinCards embed.FS

// Card describes one installed model.
type Card struct {
	Name        string `yaml:"name"`
	Entrypoint  string `yaml:"entrypoint"`
	Description string `yaml:"description"`

	Title   string `yaml:"-"` // first heading of the body
	Summary string `yaml:"-"` // first paragraph of the body
	Path    string `yaml:"-"` // empty for builtin cards
	Builtin bool   `yaml:"-"`
}

// Command splits the entrypoint into program and leading arguments.
func (c *Card) Command() (string, []string) {
	fields := strings.Fields(c.Entrypoint)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}

// Registry holds model cards keyed by name.
type Registry struct {
	cards map[string]*Card
}

// Builtin returns a registry holding only the cards shipped with songdeck.
func Builtin() (*Registry, error) {
	r := &Registry{cards: make(map[string]*Card)}
	entries, err := fs.ReadDir(builtinCards, "cards")
	if err != nil {
		return nil, fmt.Errorf("read builtin cards: %w", err)
	}
	for _, e := range entries {
		data, err := builtinCards.ReadFile("cards/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read builtin card %s: %w", e.Name(), err)
		}
		card, err := ParseCard(data)
		if err != nil {
			return nil, fmt.Errorf("builtin card %s: %w", e.Name(), err)
		}
		card.Builtin = true
		r.cards[card.Name] = card
	}
	return r, nil
}

// Load returns the builtin cards plus every *.md card in dir. A missing dir
// is not an error. A user card with a builtin's name replaces the builtin.
// Cards that fail to parse are returned in skipped rather than failing the
// load, so one broken card does not hide the others.
func Load(dir string) (r *Registry, skipped []error, err error) {
	r, err = Builtin()
	if err != nil {
		return nil, nil, err
	}
	if dir == "" {
		return r, nil, nil
	}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return r, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read models dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") || e.Name() == "README.md" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("%s: %w", path, err))
			continue
		}
		card, err := ParseCard(data)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("%s: %w", path, err))
			continue
		}
		card.Path = path
		r.cards[card.Name] = card
	}
	return r, skipped, nil
}

// Has reports whether a model named name is installed.
func (r *Registry) Has(name string) bool {
	_, ok := r.cards[name]
	return ok
}

// Get returns the card for name.
func (r *Registry) Get(name string) (*Card, bool) {
	c, ok := r.cards[name]
	return c, ok
}

// Names returns installed model names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.cards))
	for n := range r.cards {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Cards returns every card sorted by name.
func (r *Registry) Cards() []*Card {
	out := make([]*Card, 0, len(r.cards))
	for _, n := range r.Names() {
		out = append(out, r.cards[n])
	}
	return out
}

// ParseCard parses a model card. The frontmatter must name the model and
// its entrypoint.
func ParseCard(content []byte) (*Card, error) {
	frontmatter, body := extractFrontmatter(content)
	if frontmatter == nil {
		return nil, fmt.Errorf("no frontmatter found")
	}

	var card Card
	if err := yaml.Unmarshal(frontmatter, &card); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	card.Name = strings.TrimSpace(card.Name)
	if card.Name == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if strings.ContainsAny(card.Name, ", \t") {
		return nil, fmt.Errorf("model name %q must not contain commas or spaces", card.Name)
	}
	if strings.TrimSpace(card.Entrypoint) == "" {
		return nil, fmt.Errorf("model %s: entrypoint is required", card.Name)
	}

	card.Title, card.Summary = summarize(body)
	if card.Title == "" {
		card.Title = card.Name
	}
	return &card, nil
}

// summarize returns the first heading and first paragraph of a card body.
func summarize(body []byte) (title, summary string) {
	doc := goldmark.New().Parser().Parse(text.NewReader(body))
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if title == "" {
				title = nodeText(node, body)
			}
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph:
			if summary == "" {
				summary = nodeText(node, body)
			}
			return ast.WalkSkipChildren, nil
		}
		if title != "" && summary != "" {
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return title, summary
}

// nodeText concatenates the text of n's descendants, joining soft line
// breaks with a space.
func nodeText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}

// extractFrontmatter splits "---"-delimited YAML frontmatter from the body.
func extractFrontmatter(content []byte) ([]byte, []byte) {
	lines := strings.Split(string(content), "\n")
	if len(lines) < 3 || strings.TrimSpace(lines[0]) != "---" {
		return nil, content
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return []byte(strings.Join(lines[1:i], "\n")), []byte(strings.Join(lines[i+1:], "\n"))
		}
	}
	return nil, content
}
