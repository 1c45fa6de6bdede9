package catalog

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleVariants() []Variant {
	return []Variant{
		{ID: 1, Color: "Red", Size: "XL", Available: true},
		{ID: 2, Color: "Blue", Size: "M", Available: true},
		{ID: 3, Color: "Red", Size: "S", Available: true},
		{ID: 4, Color: "Red", Size: "3XL", Available: true},
		{ID: 5, Color: "Red", Size: "M", Available: false},
		{ID: 6, Color: "Red", Size: "One size", Available: true},
		{ID: 7, Color: "Blue", Size: "XS", Available: true},
	}
}

func TestBuildIndex_ColorsInFirstAppearanceOrder(t *testing.T) {
	ix := BuildIndex(sampleVariants())
	assert.Equal(t, []string{"Red", "Blue"}, ix.Colors())
	assert.True(t, ix.HasColor("Blue"))
	assert.False(t, ix.HasColor("Green"))
}

func TestSizesForColor_KnownFirstUnknownStable(t *testing.T) {
	ix := BuildIndex(sampleVariants())

	// M is unavailable for Red and must not be listed.
	assert.Equal(t, []string{"S", "XL", "3XL", "One size"}, ix.SizesForColor("Red"))
	assert.Equal(t, []string{"XS", "M"}, ix.SizesForColor("Blue"))
	assert.Empty(t, ix.SizesForColor("Green"))
}

func TestSortedVariants_IncludesUnavailable(t *testing.T) {
	ix := BuildIndex(sampleVariants())
	var ids []int
	for _, v := range ix.SortedVariants("Red") {
		ids = append(ids, v.ID)
	}
	assert.Equal(t, []int{3, 5, 1, 4, 6}, ids)
}

func TestBuildIndex_DoesNotMutateInput(t *testing.T) {
	input := sampleVariants()
	snapshot := append([]Variant(nil), input...)

	ix := BuildIndex(input)
	ix.Groups()
	ix.SizesForColor("Red")
	got := ix.Variants("Red")
	got[0].Color = "changed"

	assert.Equal(t, snapshot, input)
	assert.Equal(t, "Red", ix.Variants("Red")[0].Color, "callers get copies")
}

func TestBuildIndex_UnionEqualsInput(t *testing.T) {
	colors := []string{"Red", "Blue", "Black", ""}
	sizes := []string{"XS", "S", "M", "L", "XL", "XXL", "4XL", "One size"}
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		n := rng.Intn(40)
		input := make([]Variant, n)
		for i := range input {
			input[i] = Variant{
				ID:        i + 1,
				Color:     colors[rng.Intn(len(colors))],
				Size:      sizes[rng.Intn(len(sizes))],
				Available: rng.Intn(3) > 0,
			}
		}

		ix := BuildIndex(input)
		var union []int
		for _, g := range ix.Groups() {
			for _, v := range g.Variants {
				require.Equal(t, g.Color, v.Color)
				union = append(union, v.ID)
			}
		}
		sort.Ints(union)

		want := make([]int, n)
		for i := range input {
			want[i] = input[i].ID
		}
		require.Equal(t, len(want), len(union), "round %d: variant dropped or duplicated", round)
		if n > 0 {
			require.Equal(t, want, union, "round %d", round)
		}
		require.Equal(t, n, ix.Len())
	}
}

func TestLookup(t *testing.T) {
	ix := BuildIndex(sampleVariants())
	v, ok := ix.Lookup(5)
	require.True(t, ok)
	assert.False(t, v.Available)

	_, ok = ix.Lookup(99)
	assert.False(t, ok)
}

func TestGroups_Empty(t *testing.T) {
	ix := BuildIndex(nil)
	assert.Empty(t, ix.Groups())
	assert.Empty(t, ix.Colors())
}
