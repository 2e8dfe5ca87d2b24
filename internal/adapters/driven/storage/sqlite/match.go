package sqlite

import (
	"strings"

	"github.com/shinyobjectz/beans/internal/core/domain"
)

// MatchExpression compiles a parsed query into an FTS5 MATCH expression.
// Every term is emitted as a quoted string so user input can never be read
// as FTS5 syntax. Returns "" when the query has no positive terms.
//
//	token "leaky bucket" OR redis -memcached
//	=> (("token") AND ("leaky bucket" OR "redis")) NOT "memcached"
func MatchExpression(q domain.SearchQuery) string {
	groups := make([]string, 0, len(q.Groups))
	for _, group := range q.Groups {
		alts := make([]string, 0, len(group))
		for _, term := range group {
			if t := matchTerm(term); t != "" {
				alts = append(alts, t)
			}
		}
		if len(alts) > 0 {
			groups = append(groups, "("+strings.Join(alts, " OR ")+")")
		}
	}
	if len(groups) == 0 {
		return ""
	}

	expr := strings.Join(groups, " AND ")
	var excluded []string
	for _, term := range q.Exclude {
		if t := matchTerm(term); t != "" {
			excluded = append(excluded, t)
		}
	}
	if len(excluded) == 0 {
		return expr
	}
	return "(" + expr + ") NOT " + strings.Join(excluded, " NOT ")
}

func matchTerm(t domain.QueryTerm) string {
	if len(t.Tokens) == 0 {
		return ""
	}
	s := `"` + strings.ReplaceAll(strings.Join(t.Tokens, " "), `"`, `""`) + `"`
	if t.Prefix {
		s += "*"
	}
	return s
}
