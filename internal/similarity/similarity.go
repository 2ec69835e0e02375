package similarity

import "math"

// Per-dimension blend weights: Jaccard carries more signal than TF-IDF on
// the short texts this pipeline compares.
const (
	jaccardWeight = 0.6
	tfidfWeight   = 0.4
)

// Jaccard computes |a ∩ b| / |a ∪ b|. Either set being empty yields 0.0:
// absence of signal is absence of match, never a vacuous 1.0.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	inter := Intersect(a, b)
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0.0
	}
	return float64(inter) / float64(union)
}

// TFIDFCosine computes the cosine similarity of word-level TF-IDF vectors
// over the two texts, with the corpus being exactly those two documents.
// Document frequencies are smoothed (idf = ln((1+n)/(1+df)) + 1) so words
// shared by both documents keep nonzero weight. Because the corpus is the
// same regardless of argument order, the result is symmetric. Returns 0.0
// when either text produces no words.
func TFIDFCosine(text1, text2 string) float64 {
	words1 := tokenize(text1)
	words2 := tokenize(text2)
	if len(words1) == 0 || len(words2) == 0 {
		return 0.0
	}

	tf1 := frequencies(words1)
	tf2 := frequencies(words2)

	const n = 2.0
	var dot, norm1, norm2 float64
	for term := range unionKeys(tf1, tf2) {
		df := 0
		if tf1[term] > 0 {
			df++
		}
		if tf2[term] > 0 {
			df++
		}
		idf := math.Log((1+n)/float64(1+df)) + 1
		w1 := float64(tf1[term]) * idf
		w2 := float64(tf2[term]) * idf
		dot += w1 * w2
		norm1 += w1 * w1
		norm2 += w2 * w2
	}

	if norm1 == 0 || norm2 == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(norm1) * math.Sqrt(norm2))
}

// Compare blends Jaccard over the two term sets with TF-IDF cosine over the
// raw texts and clamps to [0, 1]. This is the single similarity primitive;
// the scorer calls it once per dimension (service, segment), passing that
// dimension's key-term sets alongside the comparison texts.
func Compare(targetTerms, candidateTerms map[string]struct{}, targetText, candidateText string) float64 {
	jac := Jaccard(targetTerms, candidateTerms)
	tfidf := TFIDFCosine(targetText, candidateText)
	return Clamp(jaccardWeight*jac + tfidfWeight*tfidf)
}

// Clamp bounds v to [0, 1].
func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func frequencies(words []string) map[string]int {
	tf := make(map[string]int, len(words))
	for _, w := range words {
		tf[w]++
	}
	return tf
}

func unionKeys(a, b map[string]int) map[string]struct{} {
	out := make(map[string]struct{}, len(a)+len(b))
	for t := range a {
		out[t] = struct{}{}
	}
	for t := range b {
		out[t] = struct{}{}
	}
	return out
}
