package ruletext

import (
	"bufio"
	"fmt"
	"strings"
	"unicode"

	"github.com/cognicore/sbc/pkg/sbc/inference"
	"github.com/cognicore/sbc/pkg/sbc/internalerr"
)

// Keywords of the rule authoring syntax: "SE chuva E frio ENTÃO casaco".
const (
	KeywordIf   = "SE"
	KeywordThen = "ENTÃO"
)

// Tokenize splits text into maximal runs of word characters.
// A word character is a Unicode letter, a Unicode number or '_';
// everything else, hyphens included, separates tokens. Case is preserved.
func Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	for _, r := range text {
		if isWordRune(r) {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	// Don't forget the last token
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_'
}

// Parse reads one rule from free text.
//
// The first SE token starts the antecedent and the first ENTÃO token ends it;
// every token in between is an antecedent fact, connective E included. The
// token right after ENTÃO is the consequent. Text missing either keyword, or
// with nothing after ENTÃO, is not a rule and ok is false.
func Parse(text string) (rule inference.Rule, ok bool) {
	parts := Tokenize(text)

	ifIdx := indexOf(parts, KeywordIf)
	thenIdx := indexOf(parts, KeywordThen)
	if ifIdx < 0 || thenIdx < 0 {
		return inference.Rule{}, false
	}
	if thenIdx+1 >= len(parts) {
		return inference.Rule{}, false
	}

	antecedent := []inference.Fact{}
	if start := ifIdx + 1; start < thenIdx {
		antecedent = append(antecedent, parts[start:thenIdx]...)
	}

	return inference.Rule{
		Antecedent: antecedent,
		Consequent: parts[thenIdx+1],
	}, true
}

func indexOf(parts []string, word string) int {
	for i, p := range parts {
		if p == word {
			return i
		}
	}
	return -1
}

// Format renders a rule the way it is confirmed to the user:
// "SE a e b ENTÃO c".
func Format(rule inference.Rule) string {
	return fmt.Sprintf("%s %s %s %s",
		KeywordIf, strings.Join(rule.Antecedent, " e "), KeywordThen, rule.Consequent)
}

// LoadRules parses a rule file, one rule per line.
// Format:
//
//	SE chuva ENTÃO guarda_chuva
//	SE frio E vento ENTÃO casaco
//	# comments
func LoadRules(text string) ([]inference.Rule, error) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	lineNum := 0
	var rules []inference.Rule

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rule, ok := Parse(line)
		if !ok {
			return nil, fmt.Errorf("line %d: %q: %w", lineNum, line, internalerr.ErrMalformedRule)
		}
		rules = append(rules, rule)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rules, nil
}
