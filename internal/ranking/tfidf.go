package ranking

import "math"

// TFIDF is a row-normalized term-frequency / inverse-document-frequency matrix
type TFIDF struct {
	rows []map[string]float64
}

// FitTFIDF scores every token of every row. Term frequency is the raw count,
// idf is smoothed as ln((1+n)/(1+df)) + 1 and each row is scaled to unit L2 norm,
// so every score lies in [0, 1].
func FitTFIDF(docs [][]string) *TFIDF {
	n := len(docs)
	df := make(map[string]int)
	counts := make([]map[string]int, n)

	for i, doc := range docs {
		counts[i] = make(map[string]int)
		for _, token := range doc {
			if token == "" {
				continue
			}
			if counts[i][token] == 0 {
				df[token]++
			}
			counts[i][token]++
		}
	}

	m := &TFIDF{rows: make([]map[string]float64, n)}
	for i, row := range counts {
		scores := make(map[string]float64, len(row))
		var norm float64
		for token, tf := range row {
			idf := math.Log(float64(1+n)/float64(1+df[token])) + 1
			score := float64(tf) * idf
			scores[token] = score
			norm += score * score
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for token := range scores {
				scores[token] /= norm
			}
		}
		m.rows[i] = scores
	}
	return m
}

// Score returns the weight of token in row, 0 when absent
func (m *TFIDF) Score(row int, token string) float64 {
	if row < 0 || row >= len(m.rows) {
		return 0
	}
	return m.rows[row][token]
}

// Prior is the empirical frequency distribution of domain tokens
type Prior map[string]float64

// FitPrior counts every token across all rows and normalizes the counts to sum to 1
func FitPrior(docs [][]string) Prior {
	counts := make(map[string]int)
	total := 0
	for _, doc := range docs {
		for _, token := range doc {
			if token == "" {
				continue
			}
			counts[token]++
			total++
		}
	}

	p := make(Prior, len(counts))
	for token, c := range counts {
		p[token] = float64(c) / float64(total)
	}
	return p
}
