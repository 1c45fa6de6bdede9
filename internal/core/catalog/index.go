package catalog

import "sort"

// SizeOrder is the canonical size ordering. Sizes outside this vocabulary sort
// after all known sizes and keep their input order.
var SizeOrder = []string{"XS", "S", "M", "L", "XL", "XXL"}

var sizeRank = func() map[string]int {
	m := make(map[string]int, len(SizeOrder))
	for i, s := range SizeOrder {
		m[s] = i
	}
	return m
}()

func rankOf(size string) int {
	if r, ok := sizeRank[size]; ok {
		return r
	}
	return len(SizeOrder)
}

// Index groups a variant list by color. It is built once per variant list and
// never mutates the input.
type Index struct {
	colors  []string
	byColor map[string][]Variant
	byID    map[int]Variant
}

func BuildIndex(variants []Variant) *Index {
	ix := &Index{
		colors:  []string{},
		byColor: make(map[string][]Variant),
		byID:    make(map[int]Variant, len(variants)),
	}
	for _, v := range variants {
		if _, seen := ix.byColor[v.Color]; !seen {
			ix.colors = append(ix.colors, v.Color)
		}
		ix.byColor[v.Color] = append(ix.byColor[v.Color], v)
		ix.byID[v.ID] = v
	}
	return ix
}

// Colors returns colors in order of first appearance.
func (ix *Index) Colors() []string {
	out := make([]string, len(ix.colors))
	copy(out, ix.colors)
	return out
}

func (ix *Index) HasColor(color string) bool {
	_, ok := ix.byColor[color]
	return ok
}

// Variants returns the variants of one color in input order.
func (ix *Index) Variants(color string) []Variant {
	group := ix.byColor[color]
	out := make([]Variant, len(group))
	copy(out, group)
	return out
}

func (ix *Index) Lookup(id int) (Variant, bool) {
	v, ok := ix.byID[id]
	return v, ok
}

// Len is the number of indexed variants.
func (ix *Index) Len() int {
	n := 0
	for _, group := range ix.byColor {
		n += len(group)
	}
	return n
}

// SizesForColor lists the sizes of the available variants of color, sorted by
// SizeOrder with unknown sizes last.
func (ix *Index) SizesForColor(color string) []string {
	sizes := []string{}
	for _, v := range ix.byColor[color] {
		if v.Available {
			sizes = append(sizes, v.Size)
		}
	}
	sort.SliceStable(sizes, func(i, j int) bool {
		return rankOf(sizes[i]) < rankOf(sizes[j])
	})
	return sizes
}

// SortedVariants returns the variants of color ordered like SizesForColor,
// unavailable ones included.
func (ix *Index) SortedVariants(color string) []Variant {
	out := ix.Variants(color)
	sort.SliceStable(out, func(i, j int) bool {
		return rankOf(out[i].Size) < rankOf(out[j].Size)
	})
	return out
}

// Groups returns every color group in color order.
func (ix *Index) Groups() []ColorGroup {
	groups := make([]ColorGroup, 0, len(ix.colors))
	for _, c := range ix.colors {
		groups = append(groups, ColorGroup{
			Color:    c,
			Variants: ix.SortedVariants(c),
			Sizes:    ix.SizesForColor(c),
		})
	}
	return groups
}
