// Package umesh holds the flat unstructured mesh produced by meshing: a point
// array, typed elements tagged with a block marker, and named side and node
// sets.
package umesh

import (
	"fmt"
	"strings"
)

// ElementType is the kind of a mesh element.
type ElementType int

const (
	Point1 ElementType = iota
	Line2
	Tri3
	Quad4
	Tetra4
	Pyramid5
	Prism6
	Hex8
)

var elementNames = [...]string{"POINT1", "LINE2", "TRI3", "QUAD4", "TETRA4", "PYRAMID5", "PRISM6", "HEX8"}

func (t ElementType) String() string {
	if t < 0 || int(t) >= len(elementNames) {
		return fmt.Sprintf("ElementType(%d)", int(t))
	}
	return elementNames[t]
}

// ParseElementType is the inverse of String. Matching is case-insensitive.
func ParseElementType(s string) (ElementType, error) {
	for i, n := range elementNames {
		if strings.EqualFold(s, n) {
			return ElementType(i), nil
		}
	}
	return 0, fmt.Errorf("umesh: unknown element type %q", s)
}

// MarshalText encodes the type by name.
func (t ElementType) MarshalText() ([]byte, error) {
	if t < 0 || int(t) >= len(elementNames) {
		return nil, fmt.Errorf("umesh: invalid element type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a type name.
func (t *ElementType) UnmarshalText(b []byte) error {
	v, err := ParseElementType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// NumNodes returns the number of nodes of the element type.
func (t ElementType) NumNodes() int {
	switch t {
	case Point1:
		return 1
	case Line2:
		return 2
	case Tri3:
		return 3
	case Quad4, Tetra4:
		return 4
	case Pyramid5:
		return 5
	case Prism6:
		return 6
	case Hex8:
		return 8
	}
	return 0
}

// Dim returns the topological dimension.
func (t ElementType) Dim() int {
	switch t {
	case Point1:
		return 0
	case Line2:
		return 1
	case Tri3, Quad4:
		return 2
	case Tetra4, Pyramid5, Prism6, Hex8:
		return 3
	}
	return -1
}

// Local node numbering of element sides. For 2D elements the sides are
// edges, for 3D elements faces. Side i of a LINE2 is its node i.
var sideNodes = map[ElementType][][]int{
	Line2: {{0}, {1}},
	Tri3:  {{0, 1}, {1, 2}, {2, 0}},
	Quad4: {{0, 1}, {1, 2}, {2, 3}, {3, 0}},
	Tetra4: {
		{0, 1, 2}, {0, 1, 3}, {1, 2, 3}, {2, 0, 3},
	},
	Pyramid5: {
		{0, 1, 2, 3}, {0, 1, 4}, {1, 2, 4}, {2, 3, 4}, {3, 0, 4},
	},
	Prism6: {
		{0, 2, 1}, {0, 1, 4, 3}, {1, 2, 5, 4}, {2, 0, 3, 5}, {3, 4, 5},
	},
	Hex8: {
		{0, 1, 5, 4}, {2, 3, 7, 6}, {3, 0, 4, 7}, {1, 2, 6, 5}, {0, 3, 2, 1}, {4, 5, 6, 7},
	},
}

// Sides returns the local node indices of each side of t.
func (t ElementType) Sides() [][]int { return sideNodes[t] }

var edgeNodes = map[ElementType][][2]int{
	Line2:    {{0, 1}},
	Tri3:     {{0, 1}, {1, 2}, {2, 0}},
	Quad4:    {{0, 1}, {1, 2}, {2, 3}, {3, 0}},
	Tetra4:   {{0, 1}, {1, 2}, {2, 0}, {0, 3}, {1, 3}, {2, 3}},
	Pyramid5: {{0, 1}, {1, 2}, {2, 3}, {3, 0}, {0, 4}, {1, 4}, {2, 4}, {3, 4}},
	Prism6:   {{0, 1}, {1, 2}, {2, 0}, {0, 3}, {1, 4}, {2, 5}, {3, 4}, {4, 5}, {5, 3}},
	Hex8: {
		{0, 1}, {1, 2}, {2, 3}, {3, 0}, {0, 4}, {1, 5},
		{2, 6}, {3, 7}, {4, 5}, {5, 6}, {6, 7}, {7, 4},
	},
}

// Edges returns the local node pairs of each edge of t.
func (t ElementType) Edges() [][2]int { return edgeNodes[t] }

// Element is a typed cell referencing points by index.
type Element struct {
	Type ElementType
	IDs  []int
	// Marker is the block (cell set) the element belongs to.
	Marker int
}

// NewElement returns an element after checking the node count.
func NewElement(t ElementType, marker int, ids ...int) (Element, error) {
	if len(ids) != t.NumNodes() {
		return Element{}, fmt.Errorf("umesh: %s needs %d nodes, got %d", t, t.NumNodes(), len(ids))
	}
	return Element{Type: t, IDs: append([]int(nil), ids...), Marker: marker}, nil
}

func (e Element) clone() Element {
	e.IDs = append([]int(nil), e.IDs...)
	return e
}

// Side is one side of one element.
type Side struct {
	Elem int
	Side int
}
