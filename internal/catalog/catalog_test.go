package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/stemquiz/apps/go-server/internal/quiz"
)

func TestLoadEmbeddedDefault(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"bio", "chem", "physics", All}, c.Subjects())
	subjects, clues := c.Stats()
	assert.Equal(t, 3, subjects)
	assert.Equal(t, 6, clues)

	bio := c.Clues("bio")
	require.Len(t, bio, 2)
	assert.Equal(t, quiz.Clue{Prompt: "The powerhouse of the cell.", Answer: "mitochondria"}, bio[0])
}

func TestAllIsConcatenationInOrder(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	var want []quiz.Clue
	for _, s := range c.Subjects() {
		if s != All {
			want = append(want, c.Clues(s)...)
		}
	}
	assert.Equal(t, want, c.Clues(All))
}

func TestCluesReturnsCopy(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	got := c.Clues("chem")
	got[0].Answer = "changed"
	assert.Equal(t, "atom", c.Clues("chem")[0].Answer)
	assert.Nil(t, c.Clues("history"))
	assert.False(t, c.Has("history"))
	assert.True(t, c.Has(All))
}

func TestParseNormalizesAnswers(t *testing.T) {
	c, err := Parse([]byte(`
subjects:
  - name: " Geo "
    clues:
      - prompt: " Largest ocean. "
        answer: " PACIFIC "
`))
	require.NoError(t, err)
	assert.Equal(t, []quiz.Clue{{Prompt: "Largest ocean.", Answer: "pacific"}}, c.Clues("geo"))
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"empty":     `subjects: []`,
		"reserved":  "subjects:\n  - name: all\n    clues: [{prompt: p, answer: a}]\n",
		"no clues":  "subjects:\n  - name: bio\n    clues: []\n",
		"duplicate": "subjects:\n  - name: bio\n    clues: [{prompt: p, answer: a}]\n  - name: bio\n    clues: [{prompt: p, answer: a}]\n",
		"no answer": "subjects:\n  - name: bio\n    clues: [{prompt: p, answer: ''}]\n",
		"unknown":   "subjects:\n  - name: bio\n    hint: x\n    clues: [{prompt: p, answer: a}]\n",
		"no name":   "subjects:\n  - clues: [{prompt: p, answer: a}]\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestUnsolvableAnswersAreReported(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []Unsolvable{{Subject: "physics", Answer: "299792458"}}, c.Unsolvable())

	c, err = Parse([]byte(`
subjects:
  - name: math
    clues:
      - {prompt: Two plus two., answer: four}
      - {prompt: Ratio of a circle's circumference to its diameter., answer: "pi-3.14"}
      - {prompt: Three-sided polygon., answer: Triangle}
`))
	require.NoError(t, err)
	assert.Equal(t, []Unsolvable{{Subject: "math", Answer: "pi-3.14"}}, c.Unsolvable())
	assert.Len(t, c.Clues("math"), 3, "unsolvable clues still load")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("subjects:\n  - name: math\n    clues: [{prompt: Two plus two., answer: four}]\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"math", All}, c.Subjects())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
