package memory

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/shinyobjectz/beans/internal/core/domain"
)

// BM25 parameters.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// fold lower-cases text and strips combining marks so that "Café" and
// "cafe" index to the same token, like unicode61 with remove_diacritics.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(out)
}

func tokens(s string) []string {
	return domain.Tokenize(fold(s))
}

// invertedIndex maps tokens to the documents and positions they occur at.
// Documents are identified by insertion index.
type invertedIndex struct {
	postings map[string]map[int][]int
	vocab    []string
	docLen   []int
	totalLen int
}

func newInvertedIndex() *invertedIndex {
	return &invertedIndex{postings: make(map[string]map[int][]int)}
}

// add indexes fields of document doc. doc must equal the number of
// documents already added. A position is skipped between fields so phrases
// never match across a field boundary.
func (ix *invertedIndex) add(doc int, fields ...string) {
	pos := 0
	n := 0
	for _, field := range fields {
		for _, tok := range tokens(field) {
			docs, ok := ix.postings[tok]
			if !ok {
				docs = make(map[int][]int)
				ix.postings[tok] = docs
				i := sort.SearchStrings(ix.vocab, tok)
				ix.vocab = append(ix.vocab, "")
				copy(ix.vocab[i+1:], ix.vocab[i:])
				ix.vocab[i] = tok
			}
			docs[doc] = append(docs[doc], pos)
			pos++
			n++
		}
		pos++
	}
	ix.docLen = append(ix.docLen, n)
	ix.totalLen += n
}

func (ix *invertedIndex) docCount() int {
	return len(ix.docLen)
}

// expand returns the vocabulary entries starting with prefix.
func (ix *invertedIndex) expand(prefix string) []string {
	var out []string
	for i := sort.SearchStrings(ix.vocab, prefix); i < len(ix.vocab); i++ {
		if !strings.HasPrefix(ix.vocab[i], prefix) {
			break
		}
		out = append(out, ix.vocab[i])
	}
	return out
}

// match returns the term frequency of term in every document containing it.
func (ix *invertedIndex) match(term domain.QueryTerm) map[int]int {
	toks := make([]string, 0, len(term.Tokens))
	for _, tok := range term.Tokens {
		toks = append(toks, tokens(tok)...)
	}
	if len(toks) == 0 {
		return nil
	}

	last := []string{toks[len(toks)-1]}
	if term.Prefix {
		last = ix.expand(last[0])
	}

	tf := make(map[int]int)
	if len(toks) == 1 {
		for _, tok := range last {
			for doc, positions := range ix.postings[tok] {
				tf[doc] += len(positions)
			}
		}
		return tf
	}

	for doc, starts := range ix.postings[toks[0]] {
		for _, p := range starts {
			if ix.phraseAt(doc, p, toks[1:len(toks)-1], last) {
				tf[doc]++
			}
		}
	}
	return tf
}

// phraseAt reports whether middle follows position p in doc and one of last
// comes right after it.
func (ix *invertedIndex) phraseAt(doc, p int, middle, last []string) bool {
	for i, tok := range middle {
		if !hasPosition(ix.postings[tok][doc], p+1+i) {
			return false
		}
	}
	end := p + 1 + len(middle)
	for _, tok := range last {
		if hasPosition(ix.postings[tok][doc], end) {
			return true
		}
	}
	return false
}

func hasPosition(positions []int, p int) bool {
	i := sort.SearchInts(positions, p)
	return i < len(positions) && positions[i] == p
}

// bm25 scores a term occurring tf times in doc, given it occurs in df documents.
func (ix *invertedIndex) bm25(doc, tf, df int) float64 {
	n := float64(ix.docCount())
	idf := math.Log(1 + (n-float64(df)+0.5)/(float64(df)+0.5))
	avg := float64(ix.totalLen) / n
	if avg == 0 {
		avg = 1
	}
	dl := float64(ix.docLen[doc])
	f := float64(tf)
	return idf * f * (bm25K1 + 1) / (f + bm25K1*(1-bm25B+bm25B*dl/avg))
}

// scored is a matching document and its rank.
type scored struct {
	doc   int
	score float64
}

// evaluate runs a parsed query and returns matching documents, best first.
// Documents must satisfy every group (any alternative within it) and match
// none of the excluded terms. Equal scores keep insertion order.
func (ix *invertedIndex) evaluate(q domain.SearchQuery) []scored {
	if q.IsEmpty() || ix.docCount() == 0 {
		return nil
	}

	var scores map[int]float64
	for _, group := range q.Groups {
		groupScores := make(map[int]float64)
		for _, term := range group {
			tf := ix.match(term)
			for doc, n := range tf {
				groupScores[doc] += ix.bm25(doc, n, len(tf))
			}
		}

		if scores == nil {
			scores = groupScores
		} else {
			for doc, s := range scores {
				gs, ok := groupScores[doc]
				if !ok {
					delete(scores, doc)
					continue
				}
				scores[doc] = s + gs
			}
		}
		if len(scores) == 0 {
			return nil
		}
	}

	for _, term := range q.Exclude {
		for doc := range ix.match(term) {
			delete(scores, doc)
		}
	}

	out := make([]scored, 0, len(scores))
	for doc, s := range scores {
		out = append(out, scored{doc: doc, score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].doc < out[j].doc
	})
	return out
}
