// Package eval scores retrieval and generation quality against a query
// dataset: pure information-retrieval metrics, ground-truth enumeration via
// the vector index, LLM-judged answer quality, and SQLite persistence of
// experiment results.
package eval

import "math"

// Metrics holds retrieval quality scores for a single evaluated query.
// Immutable once computed; consumed only for reporting and aggregation.
type Metrics struct {
	Precision     float64
	Recall        float64
	RecallCapped  float64
	MRR           float64
	NDCG          float64
	Hit           bool
	RelevantCount int
}

// Compute scores a ranked retrieval against the ground-truth relevant set.
// retrievedIDs is the ordered top-K result; relevantIDs is unordered and
// duplicate-free. All degenerate cases (empty retrieval, empty ground truth)
// resolve to zero values, never a division error.
func Compute(retrievedIDs []string, relevantIDs map[string]bool) Metrics {
	k := len(retrievedIDs)

	relevantRetrieved := 0
	for _, id := range retrievedIDs {
		if relevantIDs[id] {
			relevantRetrieved++
		}
	}

	m := Metrics{RelevantCount: len(relevantIDs)}

	if k > 0 {
		m.Precision = float64(relevantRetrieved) / float64(k)
	}
	if len(relevantIDs) > 0 {
		m.Recall = float64(relevantRetrieved) / float64(len(relevantIDs))
	}
	if k > 0 && len(relevantIDs) > 0 {
		m.RecallCapped = float64(relevantRetrieved) / float64(min(k, len(relevantIDs)))
	}

	for i, id := range retrievedIDs {
		if relevantIDs[id] {
			m.MRR = 1 / float64(i+1)
			m.Hit = true
			break
		}
	}

	m.NDCG = ndcg(retrievedIDs, relevantIDs)

	return m
}

// ndcg is normalised discounted cumulative gain over the whole retrieved
// list. IDCG places min(|relevant|, K) relevant items first.
func ndcg(retrievedIDs []string, relevantIDs map[string]bool) float64 {
	dcg := 0.0
	for i, id := range retrievedIDs {
		if relevantIDs[id] {
			dcg += 1 / math.Log2(float64(i+2))
		}
	}

	idcg := 0.0
	for i := range min(len(relevantIDs), len(retrievedIDs)) {
		idcg += 1 / math.Log2(float64(i+2))
	}

	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
