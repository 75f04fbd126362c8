// Package lexical implements an in-memory BM25 (Okapi) index over tokenized
// documents. The index is built once and is immutable thereafter, so
// concurrent reads need no locking.
package lexical

import "math"

// BM25 parameters (Okapi variant, standard values).
const (
	paramK1 = 1.2
	paramB  = 0.75
	// paramEpsilon replaces negative IDF for terms present in nearly every
	// document, so they still contribute a small amount to ranking.
	paramEpsilon = 0.25
)

// Index is a BM25 index over a fixed corpus of token lists.
type Index struct {
	termFreqs []map[string]int
	docLens   []int
	avgLen    float64
	idf       map[string]float64
}

// Build constructs an index from the corpus. The corpus order defines the
// document positions used by Score.
func Build(corpus [][]string) *Index {
	ix := &Index{
		termFreqs: make([]map[string]int, len(corpus)),
		docLens:   make([]int, len(corpus)),
		idf:       make(map[string]float64),
	}

	docFreq := make(map[string]int)
	var totalLen int

	for i, tokens := range corpus {
		ix.docLens[i] = len(tokens)
		totalLen += len(tokens)

		tf := make(map[string]int, len(tokens))
		for _, t := range tokens {
			if tf[t] == 0 {
				docFreq[t]++
			}
			tf[t]++
		}
		ix.termFreqs[i] = tf
	}

	if len(corpus) > 0 {
		ix.avgLen = float64(totalLen) / float64(len(corpus))
	}

	n := float64(len(corpus))
	for term, freq := range docFreq {
		idf := math.Log(1 + (n-float64(freq)+0.5)/(float64(freq)+0.5))
		if idf < 0 {
			idf = paramEpsilon
		}
		ix.idf[term] = idf
	}

	return ix
}

// Len returns the corpus size.
func (ix *Index) Len() int { return len(ix.docLens) }

// Score computes raw BM25 scores for the query against every document,
// returned as a dense vector in corpus order. Documents matching no query
// term score 0. Raw scores are unbounded; see Normalize.
func (ix *Index) Score(queryTokens []string) []float64 {
	scores := make([]float64, len(ix.docLens))
	if len(queryTokens) == 0 {
		return scores
	}

	for i := range ix.docLens {
		scores[i] = ix.scoreDoc(i, queryTokens)
	}
	return scores
}

func (ix *Index) scoreDoc(pos int, queryTokens []string) float64 {
	tf := ix.termFreqs[pos]
	docLen := float64(ix.docLens[pos])

	var score float64
	for _, t := range queryTokens {
		idf, ok := ix.idf[t]
		if !ok {
			continue
		}
		freq := float64(tf[t])
		if freq == 0 {
			continue
		}
		num := freq * (paramK1 + 1)
		den := freq + paramK1*(1-paramB+paramB*docLen/ix.avgLen)
		score += idf * num / den
	}
	return score
}

// Normalize maps raw scores into [0,1] by dividing by the maximum. An
// all-zero vector comes back unchanged (divide by 1), which keeps the result
// comparable across differently-sized result sets and avoids division by
// zero.
func Normalize(raw []float64) []float64 {
	maxScore := 0.0
	for _, s := range raw {
		if s > maxScore {
			maxScore = s
		}
	}
	if maxScore == 0 {
		maxScore = 1
	}

	norm := make([]float64, len(raw))
	for i, s := range raw {
		norm[i] = s / maxScore
	}
	return norm
}
