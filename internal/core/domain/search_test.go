package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func term(tokens ...string) QueryTerm {
	return QueryTerm{Tokens: tokens}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Token bucket", []string{"token", "bucket"}},
		{"rate-limiting, 2024!", []string{"rate", "limiting", "2024"}},
		{"snake_case_name", []string{"snake", "case", "name"}},
		{"Café Résumé", []string{"café", "résumé"}},
		{"   ", []string{}},
		{"", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestParseSearchQuery(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		groups  []QueryGroup
		exclude []QueryTerm
	}{
		{
			name:   "bare words are ANDed",
			in:     "token bucket",
			groups: []QueryGroup{{term("token")}, {term("bucket")}},
		},
		{
			name:   "quoted phrase",
			in:     `"token bucket" limits`,
			groups: []QueryGroup{{term("token", "bucket")}, {term("limits")}},
		},
		{
			name:   "hyphenated word becomes phrase",
			in:     "rate-limiting",
			groups: []QueryGroup{{term("rate", "limiting")}},
		},
		{
			name:   "prefix",
			in:     "buck*",
			groups: []QueryGroup{{QueryTerm{Tokens: []string{"buck"}, Prefix: true}}},
		},
		{
			name:   "phrase prefix",
			in:     `"token buck"*`,
			groups: []QueryGroup{{QueryTerm{Tokens: []string{"token", "buck"}, Prefix: true}}},
		},
		{
			name:   "OR alternatives",
			in:     "redis OR memcached cache",
			groups: []QueryGroup{{term("redis"), term("memcached")}, {term("cache")}},
		},
		{
			name:    "NOT and minus exclude",
			in:      "cache NOT redis -memcached",
			groups:  []QueryGroup{{term("cache")}},
			exclude: []QueryTerm{term("redis"), term("memcached")},
		},
		{
			name:   "AND keyword is ignored",
			in:     "token AND bucket",
			groups: []QueryGroup{{term("token")}, {term("bucket")}},
		},
		{
			name:   "lowercase or is a word",
			in:     "this or that",
			groups: []QueryGroup{{term("this")}, {term("or")}, {term("that")}},
		},
		{
			name:   "unbalanced quote closes at end",
			in:     `"token bucket`,
			groups: []QueryGroup{{term("token", "bucket")}},
		},
		{
			name:   "leading OR is ignored",
			in:     "OR token",
			groups: []QueryGroup{{term("token")}},
		},
		{
			name:    "OR after excluded term starts a new group",
			in:      "-redis OR cache",
			groups:  []QueryGroup{{term("cache")}},
			exclude: []QueryTerm{term("redis")},
		},
		{
			name:   "parentheses are separators",
			in:     "(token)(bucket)",
			groups: []QueryGroup{{term("token")}, {term("bucket")}},
		},
		{
			name: "punctuation only",
			in:   `*** "" ( ) -`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ParseSearchQuery(tt.in)
			assert.Equal(t, tt.in, q.Raw)
			assert.Equal(t, tt.groups, q.Groups)
			assert.Equal(t, tt.exclude, q.Exclude)
		})
	}
}

func TestSearchQuery_IsEmpty(t *testing.T) {
	assert.True(t, ParseSearchQuery("").IsEmpty())
	assert.True(t, ParseSearchQuery("   ").IsEmpty())
	assert.True(t, ParseSearchQuery("NOT redis").IsEmpty())
	assert.False(t, ParseSearchQuery("redis").IsEmpty())
}

func TestSearchQuery_String(t *testing.T) {
	q := ParseSearchQuery(`Token "Bucket Algo"* OR leaky -redis`)
	assert.Equal(t, `token "bucket algo"* OR leaky -redis`, q.String())
}

func TestSearchQuery_Terms(t *testing.T) {
	q := ParseSearchQuery("a OR b c -d")
	assert.Equal(t, []QueryTerm{term("a"), term("b"), term("c")}, q.Terms())
}
