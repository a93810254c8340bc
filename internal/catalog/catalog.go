// apps/go-server/internal/catalog/catalog.go
//
// Clue catalog for the quiz engine.
//
// Responsibilities:
//   - Load the subject-partitioned clue list from a YAML file or fall back
//     to the embedded default in assets/catalog.yaml.
//   - Derive the "all" subject as the concatenation of every other subject,
//     in file order.
//   - Hand out copies of a subject's clues so callers can shuffle freely.
//
// File shape:
//
//	subjects:
//	  - name: bio
//	    clues:
//	      - prompt: The powerhouse of the cell.
//	        answer: mitochondria
//
// Constraints:
//   • Answers are trimmed and lowercased.
//   • Every subject needs at least one clue with a non-empty prompt and answer.
//   • "all" is reserved and may not appear in the file.
//   • Answers with characters outside a-z load but can never be completed
//     from the keyboard; Unsolvable reports them so startup can warn.

package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/robalobadob/stemquiz/apps/go-server/assets"
	"github.com/robalobadob/stemquiz/apps/go-server/internal/quiz"
)

// All is the derived subject holding every clue in the catalog.
const All = "all"

// Catalog is an immutable, subject-partitioned set of clues.
type Catalog struct {
	order    []string               // subject names in file order, then All
	subjects map[string][]quiz.Clue // includes All
	unsolved []Unsolvable
}

// Unsolvable names a clue whose answer holds characters no guess can reveal.
type Unsolvable struct {
	Subject string
	Answer  string
}

type fileShape struct {
	Subjects []struct {
		Name  string `yaml:"name"`
		Clues []struct {
			Prompt string `yaml:"prompt"`
			Answer string `yaml:"answer"`
		} `yaml:"clues"`
	} `yaml:"subjects"`
}

// Load reads the catalog at path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	var (
		data []byte
		err  error
	)
	if path == "" {
		data, err = assets.Catalog()
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: read: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog and validates it.
func Parse(data []byte) (*Catalog, error) {
	var f fileShape
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if len(f.Subjects) == 0 {
		return nil, errors.New("catalog: no subjects")
	}

	c := &Catalog{subjects: make(map[string][]quiz.Clue, len(f.Subjects)+1)}
	var all []quiz.Clue
	for _, s := range f.Subjects {
		name := strings.ToLower(strings.TrimSpace(s.Name))
		switch {
		case name == "":
			return nil, errors.New("catalog: subject without a name")
		case name == All:
			return nil, fmt.Errorf("catalog: subject %q is reserved", All)
		case c.subjects[name] != nil:
			return nil, fmt.Errorf("catalog: duplicate subject %q", name)
		case len(s.Clues) == 0:
			return nil, fmt.Errorf("catalog: subject %q has no clues", name)
		}

		clues := make([]quiz.Clue, 0, len(s.Clues))
		for i, raw := range s.Clues {
			cl := quiz.Clue{
				Prompt: strings.TrimSpace(raw.Prompt),
				Answer: strings.ToLower(strings.TrimSpace(raw.Answer)),
			}
			if cl.Prompt == "" || cl.Answer == "" {
				return nil, fmt.Errorf("catalog: %s clue %d: prompt and answer are required", name, i)
			}
			if !solvable(cl.Answer) {
				c.unsolved = append(c.unsolved, Unsolvable{Subject: name, Answer: cl.Answer})
			}
			clues = append(clues, cl)
		}
		c.order = append(c.order, name)
		c.subjects[name] = clues
		all = append(all, clues...)
	}
	c.order = append(c.order, All)
	c.subjects[All] = all
	return c, nil
}

// Subjects lists subject names in catalog order, with All last.
func (c *Catalog) Subjects() []string {
	return append([]string(nil), c.order...)
}

// Has reports whether subject exists (All always does).
func (c *Catalog) Has(subject string) bool {
	_, ok := c.subjects[subject]
	return ok
}

// Clues returns a copy of the subject's clues, or nil for an unknown subject.
func (c *Catalog) Clues(subject string) []quiz.Clue {
	src, ok := c.subjects[subject]
	if !ok {
		return nil
	}
	return append([]quiz.Clue(nil), src...)
}

// Stats returns the number of subjects (excluding All) and total clues.
func (c *Catalog) Stats() (subjects int, clues int) {
	return len(c.order) - 1, len(c.subjects[All])
}

// Unsolvable lists clues, in file order, whose answers contain characters
// outside a-z.
func (c *Catalog) Unsolvable() []Unsolvable {
	return append([]Unsolvable(nil), c.unsolved...)
}

func solvable(answer string) bool {
	for _, r := range answer {
		if !strings.ContainsRune(quiz.Alphabet, r) {
			return false
		}
	}
	return true
}
