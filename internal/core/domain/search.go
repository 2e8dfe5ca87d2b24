package domain

import (
	"strings"
	"unicode"
)

// QueryTerm is a single word or phrase in a search query.
// Tokens are already normalised with Tokenize.
type QueryTerm struct {
	// Tokens holds one token for a word, several for a phrase.
	Tokens []string

	// Prefix marks the last token as a prefix match.
	Prefix bool
}

// IsPhrase returns true if the term spans more than one token.
func (t QueryTerm) IsPhrase() bool {
	return len(t.Tokens) > 1
}

// String renders the term back into query syntax.
func (t QueryTerm) String() string {
	s := strings.Join(t.Tokens, " ")
	if t.IsPhrase() {
		s = `"` + s + `"`
	}
	if t.Prefix {
		s += "*"
	}
	return s
}

// QueryGroup is a set of alternatives; a finding matches the group when it
// matches any of its terms.
type QueryGroup []QueryTerm

// SearchQuery is a parsed full-text query. A finding matches when it
// satisfies every group and contains none of the excluded terms.
type SearchQuery struct {
	// Raw is the text the query was parsed from.
	Raw string

	// Groups are combined with AND.
	Groups []QueryGroup

	// Exclude lists terms that must not appear.
	Exclude []QueryTerm
}

// IsEmpty returns true if the query has no positive terms and therefore
// cannot match anything.
func (q SearchQuery) IsEmpty() bool {
	return len(q.Groups) == 0
}

// Terms returns every positive term across all groups.
func (q SearchQuery) Terms() []QueryTerm {
	var terms []QueryTerm
	for _, g := range q.Groups {
		terms = append(terms, g...)
	}
	return terms
}

// String renders the normalised query.
func (q SearchQuery) String() string {
	parts := make([]string, 0, len(q.Groups)+len(q.Exclude))
	for _, g := range q.Groups {
		alts := make([]string, len(g))
		for i, t := range g {
			alts[i] = t.String()
		}
		parts = append(parts, strings.Join(alts, " OR "))
	}
	for _, t := range q.Exclude {
		parts = append(parts, "-"+t.String())
	}
	return strings.Join(parts, " ")
}

// Tokenize splits text into lower-cased tokens of letters and digits.
// It mirrors the unicode61 tokenizer used by the full-text index so that a
// word typed by a user and the same word stored in a finding produce the same
// tokens. Diacritic folding is left to the index.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, strings.ToLower(f))
	}
	return tokens
}

// ParseSearchQuery parses free text into a SearchQuery. It never fails:
// unbalanced quotes close at the end of input and stray operators are
// ignored.
//
// Syntax: bare words are ANDed, "quoted text" is a phrase, a trailing *
// marks a prefix, OR between two items makes alternatives, and NOT item or
// -item excludes.
func ParseSearchQuery(text string) SearchQuery {
	q := SearchQuery{Raw: text}

	var (
		pendingOr    bool
		pendingNot   bool
		lastPositive bool
	)

	add := func(term QueryTerm) {
		if len(term.Tokens) == 0 {
			pendingNot = false
			return
		}
		switch {
		case pendingNot:
			q.Exclude = append(q.Exclude, term)
			lastPositive = false
		case pendingOr && lastPositive:
			last := len(q.Groups) - 1
			q.Groups[last] = append(q.Groups[last], term)
		default:
			q.Groups = append(q.Groups, QueryGroup{term})
			lastPositive = true
		}
		pendingOr, pendingNot = false, false
	}

	runes := []rune(text)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r) || r == '(' || r == ')':
			i++

		case r == '"':
			j := i + 1
			for j < len(runes) && runes[j] != '"' {
				j++
			}
			term := QueryTerm{Tokens: Tokenize(string(runes[i+1 : j]))}
			i = j + 1
			if i < len(runes) && runes[i] == '*' {
				term.Prefix = true
				i++
			}
			add(term)

		default:
			j := i
			for j < len(runes) && !unicode.IsSpace(runes[j]) && runes[j] != '"' &&
				runes[j] != '(' && runes[j] != ')' {
				j++
			}
			word := string(runes[i:j])
			i = j

			switch word {
			case "OR":
				pendingOr = true
				continue
			case "AND":
				continue
			case "NOT":
				pendingNot = true
				continue
			}

			if strings.HasPrefix(word, "-") && len(word) > 1 {
				pendingNot = true
				word = word[1:]
			}
			prefix := strings.HasSuffix(word, "*")
			word = strings.TrimRight(word, "*")
			add(QueryTerm{Tokens: Tokenize(word), Prefix: prefix})
		}
	}

	return q
}
