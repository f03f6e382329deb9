package mock

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func TestEmbedTextDeterministic(t *testing.T) {
	embedder := NewMockEmbedder()
	ctx := context.Background()

	first, err := embedder.EmbedText(ctx, "compaction merges tables")
	require.NoError(t, err)
	second, err := embedder.EmbedText(ctx, "compaction merges tables")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 384)
}

func TestEmbedTextUnitNorm(t *testing.T) {
	embedder := NewMockEmbedder()

	vector, err := embedder.EmbedText(context.Background(), "any text at all")
	require.NoError(t, err)

	assert.InDelta(t, 1.0, math.Sqrt(float64(dot(vector, vector))), 1e-4)
	// Identical texts are a perfect match under cosine similarity.
	assert.InDelta(t, 1.0, dot(vector, vector), 1e-4)
}

func TestUnrelatedTextsScoreLow(t *testing.T) {
	embedder := NewMockEmbedder()
	ctx := context.Background()

	vectors, err := embedder.EmbedTexts(ctx, []string{
		"alpha beta gamma",
		"delta epsilon",
		"background compaction merges tables",
	})
	require.NoError(t, err)

	// Unrelated texts must stay well under any reasonable threshold, or
	// every stored chunk would match every query in tests.
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			assert.Less(t, float64(dot(vectors[i], vectors[j])), 0.5,
				"texts %d and %d too similar", i, j)
		}
	}
}
