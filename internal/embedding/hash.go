package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultHashDimension matches all-minilm:l6-v2 so providers can be swapped.
const DefaultHashDimension = 384

// HashEmbedder maps text to a vector with signed feature hashing over word
// tokens and character trigrams. Output is L2-normalized; empty text yields
// the zero vector.
type HashEmbedder struct {
	dimension int
}

var _ Embedder = (*HashEmbedder)(nil)

// NewHashEmbedder returns a hash embedder. dimension <= 0 uses DefaultHashDimension.
func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = DefaultHashDimension
	}
	return &HashEmbedder{dimension: dimension}
}

func (h *HashEmbedder) Model() string  { return "feature-hash" }
func (h *HashEmbedder) Dimension() int { return h.dimension }

func (h *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, h.dimension)
	for _, tok := range tokenize(text) {
		h.add(vec, "w:"+tok, 1.0)
		padded := []rune("#" + tok + "#")
		for i := 0; i+3 <= len(padded); i++ {
			h.add(vec, "c:"+string(padded[i:i+3]), 0.5)
		}
	}
	normalize(vec)
	return vec, nil
}

func (h *HashEmbedder) add(vec []float32, feature string, weight float32) {
	f := fnv.New64a()
	_, _ = f.Write([]byte(feature))
	sum := f.Sum64()
	idx := int(sum % uint64(h.dimension))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
