package morph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoveWordFormsOf(t *testing.T) {
	removed0 := RemoveWordFormsOf("apple", []string{"apple", "apples", "applesauce", "banana", "bananas"})
	assert.Equal(t, []string{"banana", "bananas"}, removed0)

	removed1 := RemoveWordFormsOf("presidential", []string{
		"president",
		"prestige",
		"presidencies",
		"present",
		"presidential",
		"pretext",
		"preside",
		"banana",
		"presidentially",
	})
	assert.Equal(t, []string{"prestige", "present", "pretext", "banana"}, removed1)
}

func TestRemoveWordFormsOf_caseInsensitive(t *testing.T) {
	assert.Equal(t, []string{"pear"}, RemoveWordFormsOf("Apple", []string{"APPLES", "pear"}))
	assert.Empty(t, RemoveWordFormsOf("apples", []string{"Apple"}))
}

type fixedForms map[string][]string

func (f fixedForms) FormsOf(word string) []string {
	return f[word]
}

func TestFilter_customProvider(t *testing.T) {
	filter := NewFilter(fixedForms{
		"go":   {"go", "went", "gone"},
		"wend": {"wend", "went"},
	})
	// "went" contains a form of "go"; "wend" has no form inside "go" and none of go's forms inside it.
	assert.Equal(t, []string{"wend", "stop"}, filter.RemoveWordFormsOf("go", []string{"went", "wend", "stop"}))
}

func TestStemProvider(t *testing.T) {
	assert.Equal(t, []string{"presid"}, StemProvider{}.FormsOf("presid"))
	assert.Equal(t, []string{"president", "presid"}, StemProvider{}.FormsOf("President"))
	assert.Nil(t, StemProvider{}.FormsOf(""))
}
