// Package naming derives stable tool names from operations.
package naming

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/kolah/oink/internal/model"
)

// MaxLength is the longest tool name most hosts accept.
const MaxLength = 64

// SnakeCase lower-cases s and joins its words with underscores. Word
// boundaries are lower-to-upper transitions and any rune that is not a
// letter or digit.
func SnakeCase(s string) string {
	words := splitWords(s)
	for i, word := range words {
		words[i] = strings.ToLower(word)
	}
	return strings.Join(words, "_")
}

func splitWords(s string) []string {
	var words []string
	var current strings.Builder
	var prev rune

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
			prev = r
			continue
		}

		if unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)) && current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}

		current.WriteRune(r)
		prev = r
	}

	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

// ToolName returns the snake_cased operationId, or method_path when the
// operation has none.
func ToolName(op *model.Operation) string {
	source := op.ID
	if SnakeCase(source) == "" {
		source = string(op.Method) + "_" + op.Path
	}
	return truncate(SnakeCase(source), MaxLength)
}

// Namer hands out unique tool names, suffixing repeats with _2, _3 and so on.
type Namer struct {
	used map[string]bool
}

func NewNamer() *Namer {
	return &Namer{used: make(map[string]bool)}
}

func (n *Namer) Name(op *model.Operation) string {
	base := ToolName(op)
	name := base
	for i := 2; n.used[name]; i++ {
		suffix := "_" + strconv.Itoa(i)
		name = truncate(base, MaxLength-len(suffix)) + suffix
	}
	n.used[name] = true
	return name
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimRight(s[:n], "_")
}
