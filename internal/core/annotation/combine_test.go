package annotation

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lueurxax/linking-dashboard/internal/core/span"
)

func groundTruthAt(start, end int, id string) Annotation {
	return NewBuilder(span.New(start, end)).
		GroundTruth(GroundTruth{EntityID: id}).
		ID("gt-" + id).
		Build()
}

func predictionAt(start, end int, id string) Annotation {
	return NewBuilder(span.New(start, end)).
		Prediction(Prediction{EntityID: id, Evaluated: true}).
		ID("pr-" + id).
		Build()
}

func hyperlinkAt(start, end int, target string) Annotation {
	return NewBuilder(span.New(start, end)).Hyperlink(target).Build()
}

func kinds(a Annotation) []Kind {
	var out []Kind
	for _, level := range a.Chain() {
		out = append(out, level.Kind)
	}

	return out
}

func TestCombine_PartialOverlap(t *testing.T) {
	first := []Annotation{groundTruthAt(0, 10, "Q1")}
	second := []Annotation{predictionAt(5, 15, "Q2")}

	out := Combine(first, second)
	require.Len(t, out, 3)

	require.Equal(t, span.New(0, 5), out[0].Span)
	require.True(t, out[0].Beginning)
	require.Nil(t, out[0].Inner)
	require.Equal(t, KindGroundTruth, out[0].Kind)

	require.Equal(t, span.New(5, 10), out[1].Span)
	require.False(t, out[1].Beginning)
	require.Equal(t, []Kind{KindGroundTruth, KindPrediction}, kinds(out[1]))
	require.True(t, out[1].Inner.Beginning, "prediction starts inside the shared region")
	require.Equal(t, span.New(5, 10), out[1].Inner.Span)

	require.Equal(t, span.New(10, 15), out[2].Span)
	require.False(t, out[2].Beginning)
	require.Equal(t, KindPrediction, out[2].Kind)
	require.Equal(t, "pr-Q2", out[2].ID)
}

func TestCombine_IdenticalSpansNestSecondInsideFirst(t *testing.T) {
	out := Combine(
		[]Annotation{predictionAt(3, 7, "Q1")},
		[]Annotation{groundTruthAt(3, 7, "Q1")},
	)

	require.Len(t, out, 1)
	require.Equal(t, []Kind{KindPrediction, KindGroundTruth}, kinds(out[0]))
	require.True(t, out[0].Beginning)
	require.True(t, out[0].Inner.Beginning)
}

func TestCombine_SecondInsideFirst(t *testing.T) {
	out := Combine(
		[]Annotation{groundTruthAt(0, 20, "Q1")},
		[]Annotation{predictionAt(5, 8, "Q2")},
	)

	require.Len(t, out, 3)
	require.Equal(t, span.New(0, 5), out[0].Span)
	require.Equal(t, span.New(5, 8), out[1].Span)
	require.Equal(t, []Kind{KindGroundTruth, KindPrediction}, kinds(out[1]))
	require.Equal(t, span.New(8, 20), out[2].Span)
	require.Nil(t, out[2].Inner)

	for _, a := range out {
		require.Equal(t, "gt-Q1", a.ID)
	}
}

func TestCombine_DoesNotMutateInputs(t *testing.T) {
	first := []Annotation{groundTruthAt(0, 10, "Q1")}
	second := []Annotation{predictionAt(0, 4, "Q2")}

	_ = Combine(first, second)

	require.Nil(t, first[0].Inner)
	require.True(t, first[0].Beginning)
	require.Equal(t, span.New(0, 10), first[0].Span)
}

func TestCombine_EmptyLists(t *testing.T) {
	a := []Annotation{groundTruthAt(0, 2, "Q1"), groundTruthAt(4, 6, "Q2")}

	require.Equal(t, a, Combine(a, nil))
	require.Equal(t, a, Combine(nil, a))
	require.Empty(t, Combine(nil, nil))
}

func TestCombineAll_HyperlinksInnermost(t *testing.T) {
	out := CombineAll(
		[]Annotation{groundTruthAt(0, 12, "Q76")},
		[]Annotation{predictionAt(0, 12, "Q76")},
		[]Annotation{hyperlinkAt(0, 6, "Barack")},
	)

	require.Len(t, out, 2)
	require.Equal(t, []Kind{KindGroundTruth, KindPrediction, KindHyperlink}, kinds(out[0]))
	require.Equal(t, []Kind{KindGroundTruth, KindPrediction}, kinds(out[1]))
	require.False(t, out[1].Beginning)
	require.False(t, out[1].Inner.Beginning)
}

// randomLayer builds a sorted, internally non-overlapping list over [0, limit).
func randomLayer(r *rand.Rand, limit int, build func(start, end int) Annotation) []Annotation {
	var out []Annotation

	pos := r.IntN(4)
	for pos < limit {
		length := 1 + r.IntN(6)
		end := min(pos+length, limit)
		out = append(out, build(pos, end))
		pos = end + r.IntN(5)
	}

	return out
}

func coverage(list []Annotation, limit int) []bool {
	covered := make([]bool, limit)

	for _, a := range list {
		for i := a.Span.Start; i < a.Span.End; i++ {
			covered[i] = true
		}
	}

	return covered
}

func TestCombine_Properties(t *testing.T) {
	const limit = 60

	r := rand.New(rand.NewPCG(7, 11))

	for round := range 200 {
		first := randomLayer(r, limit, func(s, e int) Annotation { return groundTruthAt(s, e, "A") })
		second := randomLayer(r, limit, func(s, e int) Annotation { return predictionAt(s, e, "B") })

		out := Combine(first, second)

		for i := 1; i < len(out); i++ {
			if !span.Precedes(out[i-1].Span, out[i].Span) {
				t.Fatalf("round %d: %v overlaps or precedes %v", round, out[i-1].Span, out[i].Span)
			}
		}

		want := coverage(first, limit)
		for i, c := range coverage(second, limit) {
			want[i] = want[i] || c
		}

		require.Equal(t, want, coverage(out, limit), "round %d", round)

		for _, a := range out {
			if a.Span.Empty() {
				t.Fatalf("round %d: empty fragment %v", round, a.Span)
			}

			chain := kinds(a)
			if len(chain) == 2 {
				require.Equal(t, []Kind{KindGroundTruth, KindPrediction}, chain, "round %d", round)
			}

			for _, level := range a.Chain() {
				require.Equal(t, a.Span, level.Span)
			}
		}
	}
}
