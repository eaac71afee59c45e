package link

import (
	"fmt"
	"slices"

	"github.com/matzehuels/exorcism/pkg/perm"
)

// Raw replacement cubes for two cubes A and B at distance d, one string per
// raw cube and one letter per differing position: the raw cube takes A's
// value there, B's value, or the XOR of both. Exactly one position of every
// raw cube takes the XOR. Raw cube r has its XOR at position r>>(d-1); bit k
// of the remaining bits of r selects B for the k-th other position.
var rawRules = [5][]string{
	2: {"XA", "XB", "AX", "BX"},
	3: {
		"XAA", "XBA", "XAB", "XBB",
		"AXA", "BXA", "AXB", "BXB",
		"AAX", "BAX", "ABX", "BBX",
	},
	4: {
		"XAAA", "XBAA", "XABA", "XBBA", "XAAB", "XBAB", "XABB", "XBBB",
		"AXAA", "BXAA", "AXBA", "BXBA", "AXAB", "BXAB", "AXBB", "BXBB",
		"AAXA", "BAXA", "ABXA", "BBXA", "AAXB", "BAXB", "ABXB", "BBXB",
		"AAAX", "BAAX", "ABAX", "BBAX", "AABX", "BABX", "ABBX", "BBBX",
	},
}

// Groups of raw cubes whose XOR equals A XOR B. Group g belongs to the g-th
// permutation π of the differing positions in Heap order: its j-th cube takes
// the XOR at π[j], B's value at π[0..j-1] and A's value elsewhere, so the sum
// telescopes from A to B.
var groupRules = [5][][]uint8{
	2: {{0, 3}, {2, 1}},
	3: {
		{0, 5, 11}, {4, 1, 11}, {8, 2, 7},
		{0, 9, 7}, {4, 10, 3}, {8, 6, 3},
	},
	4: {
		{0, 9, 19, 31}, {8, 1, 19, 31}, {16, 2, 11, 31}, {0, 17, 11, 31},
		{8, 18, 3, 31}, {16, 10, 3, 31}, {24, 12, 5, 23}, {8, 26, 5, 23},
		{0, 25, 13, 23}, {24, 4, 13, 23}, {8, 1, 27, 23}, {0, 9, 27, 23},
		{0, 17, 29, 15}, {16, 2, 29, 15}, {24, 4, 21, 15}, {0, 25, 21, 15},
		{16, 28, 6, 15}, {24, 20, 6, 15}, {24, 20, 14, 7}, {16, 28, 14, 7},
		{8, 26, 22, 7}, {24, 12, 22, 7}, {16, 10, 30, 7}, {8, 18, 30, 7},
	},
}

const (
	maxRaw    = 32
	maxGroups = 24
)

// table is the compiled form of the rules for one distance.
type table struct {
	d      int
	maskA  []uint8 // positions taking A's value, per raw cube
	maskB  []uint8
	maskX  []uint8
	groups [][]uint8
}

var tables [5]*table

func init() {
	for d := 2; d <= 4; d++ {
		t, err := compile(d)
		if err != nil {
			panic(err)
		}
		tables[d] = t
	}
}

func compile(d int) (*table, error) {
	rules := rawRules[d]
	if want := d << (d - 1); len(rules) != want {
		return nil, fmt.Errorf("link: %d raw cubes for d=%d, want %d", len(rules), d, want)
	}
	t := &table{
		d:      d,
		maskA:  make([]uint8, len(rules)),
		maskB:  make([]uint8, len(rules)),
		maskX:  make([]uint8, len(rules)),
		groups: groupRules[d],
	}
	for r, rule := range rules {
		if len(rule) != d {
			return nil, fmt.Errorf("link: raw cube %d of d=%d has %d positions", r, d, len(rule))
		}
		for p := 0; p < d; p++ {
			switch rule[p] {
			case 'A':
				t.maskA[r] |= 1 << p
			case 'B':
				t.maskB[r] |= 1 << p
			case 'X':
				t.maskX[r] |= 1 << p
			default:
				return nil, fmt.Errorf("link: raw cube %d of d=%d: bad rule %q", r, d, rule)
			}
		}
		pivot, takesB := rawIndexParts(d, r)
		if t.maskX[r] != 1<<pivot || t.maskB[r] != takesB {
			return nil, fmt.Errorf("link: raw cube %d of d=%d is %q, out of index order", r, d, rule)
		}
	}

	perms := perm.Generate(d, 0)
	if len(t.groups) != len(perms) {
		return nil, fmt.Errorf("link: %d groups for d=%d, want %d", len(t.groups), d, len(perms))
	}
	for g, pi := range perms {
		want := make([]uint8, d)
		var prefix uint8
		for j, p := range pi {
			want[j] = rawIndex(d, p, prefix)
			prefix |= 1 << p
		}
		if !slices.Equal(t.groups[g], want) {
			return nil, fmt.Errorf("link: group %d of d=%d is %v, want %v for ordering %v", g, d, t.groups[g], want, pi)
		}
	}
	return t, nil
}

// rawIndex returns the raw cube with its XOR at pivot and B's value at the
// positions in takesB.
func rawIndex(d, pivot int, takesB uint8) uint8 {
	var bitsB uint8
	k := 0
	for p := 0; p < d; p++ {
		if p == pivot {
			continue
		}
		if takesB&(1<<p) != 0 {
			bitsB |= 1 << k
		}
		k++
	}
	return uint8(pivot<<(d-1)) | bitsB
}

func rawIndexParts(d, r int) (pivot int, takesB uint8) {
	pivot = r >> (d - 1)
	k := 0
	for p := 0; p < d; p++ {
		if p == pivot {
			continue
		}
		if r&(1<<k) != 0 {
			takesB |= 1 << p
		}
		k++
	}
	return pivot, takesB
}
