package embeddings

import (
	"context"
	"crypto/sha1"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// LocalEmbedder is a deterministic in-process sentence model: hashed token vectors,
// attention-masked mean pooling and L2 normalization.
type LocalEmbedder struct {
	name string
	dim  int
}

func NewLocal(dim int) *LocalEmbedder { return NewLocalModel("local-fixed", dim) }

func NewLocalModel(name string, dim int) *LocalEmbedder {
	return &LocalEmbedder{name: name, dim: dim}
}

func (e *LocalEmbedder) ModelName() string { return e.name }

func (e *LocalEmbedder) Dimension() int { return e.dim }

func (e *LocalEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vecs[i] = e.embed(t)
	}
	return vecs, nil
}

func (e *LocalEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.embed(text), nil
}

func (e *LocalEmbedder) embed(text string) []float32 {
	pooled := meanPool(e.name, tokenize(withQueryPrefix(e.name, text)), e.dim)
	normalize(pooled)
	return pooled
}

// LocalCrossEncoder scores a pair by the cosine of its pooled query and passage tokens.
type LocalCrossEncoder struct {
	name string
	dim  int
}

func NewLocalCrossEncoder(name string, dim int) *LocalCrossEncoder {
	return &LocalCrossEncoder{name: name, dim: dim}
}

func (c *LocalCrossEncoder) ModelName() string { return c.name }

func (c *LocalCrossEncoder) Score(
	ctx context.Context,
	query string,
	passages []string,
) ([]float32, error) {
	q := meanPool(c.name, tokenize(query), c.dim)
	normalize(q)
	scores := make([]float32, len(passages))
	for i, p := range passages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v := meanPool(c.name, tokenize(p), c.dim)
		normalize(v)
		scores[i] = dot(q, v)
	}
	return scores, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// meanPool averages token vectors; every token carries mask weight 1 and the
// denominator is clamped so an empty text pools to the zero vector.
func meanPool(seed string, tokens []string, dim int) []float32 {
	sum := make([]float64, dim)
	for _, tok := range tokens {
		v := hashToVector(seed+"\x00"+tok, dim)
		for i := range sum {
			sum[i] += float64(v[i])
		}
	}
	den := math.Max(float64(len(tokens)), 1e-9)
	out := make([]float32, dim)
	for i := range sum {
		out[i] = float32(sum[i] / den)
	}
	return out
}

func hashToVector(s string, dim int) []float32 {
	vec := make([]float32, dim)
	var h [sha1.Size]byte
	for i := 0; i < dim; i++ {
		if i%sha1.Size == 0 {
			h = sha1.Sum([]byte(s + "#" + strconv.Itoa(i/sha1.Size)))
		}
		vec[i] = float32(int8(h[i%sha1.Size])) / 127.0
	}
	return vec
}

func normalize(v []float32) {
	var n float64
	for _, x := range v {
		n += float64(x) * float64(x)
	}
	if n == 0 {
		return
	}
	n = math.Sqrt(n)
	for i := range v {
		v[i] = float32(float64(v[i]) / n)
	}
}

func dot(a, b []float32) float32 {
	var s float64
	for i := 0; i < len(a) && i < len(b); i++ {
		s += float64(a[i]) * float64(b[i])
	}
	return float32(s)
}
