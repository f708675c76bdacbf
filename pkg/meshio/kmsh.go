package meshio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	json "github.com/goccy/go-json"

	"github.com/chazu/krado/pkg/errs"
	"github.com/chazu/krado/pkg/geom"
	"github.com/chazu/krado/pkg/umesh"
)

const (
	magic      = "KMSH"
	version    = 1
	headerSize = len(magic) + 2 + 8
)

// maxExpansion bounds the payload size a header may claim per stored byte
// of a compressed body.
const maxExpansion = 1024

// ErrFormat is returned for data that is not a readable .kmsh stream.
var ErrFormat = fmt.Errorf("meshio: malformed kmsh: %w", errs.ErrInvalidParameter)

type elementDoc struct {
	Type   umesh.ElementType `json:"type"`
	IDs    []int             `json:"ids"`
	Marker int               `json:"marker"`
}

type document struct {
	Points       [][3]float64     `json:"points"`
	Elements     []elementDoc     `json:"elements"`
	BlockNames   map[int]string   `json:"block_names,omitempty"`
	SideSets     map[int][][2]int `json:"side_sets,omitempty"`
	SideSetNames map[int]string   `json:"side_set_names,omitempty"`
	NodeSets     map[int][]byte   `json:"node_sets,omitempty"`
	NodeSetNames map[int]string   `json:"node_set_names,omitempty"`
}

func toDocument(m *umesh.Mesh) (*document, error) {
	d := &document{
		Points:       make([][3]float64, m.NumPoints()),
		Elements:     make([]elementDoc, m.NumElements()),
		BlockNames:   m.BlockNames(),
		SideSets:     make(map[int][][2]int),
		SideSetNames: m.SideSetNames(),
		NodeSets:     make(map[int][]byte),
		NodeSetNames: m.NodeSetNames(),
	}
	for i, p := range m.Points() {
		d.Points[i] = [3]float64{p.X, p.Y, p.Z}
	}
	for i, e := range m.Elements() {
		d.Elements[i] = elementDoc{Type: e.Type, IDs: e.IDs, Marker: e.Marker}
	}
	for _, id := range m.SideSetIDs() {
		sides, err := m.SideSet(id)
		if err != nil {
			return nil, err
		}
		pairs := make([][2]int, len(sides))
		for i, s := range sides {
			pairs[i] = [2]int{s.Elem, s.Side}
		}
		d.SideSets[id] = pairs
	}
	for _, id := range m.NodeSetIDs() {
		bm, err := m.NodeSet(id)
		if err != nil {
			return nil, err
		}
		bm.RunOptimize()
		b, err := bm.ToBytes()
		if err != nil {
			return nil, fmt.Errorf("meshio: node set %d: %w", id, err)
		}
		d.NodeSets[id] = b
	}
	return d, nil
}

func (d *document) mesh() (*umesh.Mesh, error) {
	pts := make([]geom.Point, len(d.Points))
	for i, p := range d.Points {
		pts[i] = geom.NewPoint(p[0], p[1], p[2])
	}
	elems := make([]umesh.Element, len(d.Elements))
	for i, e := range d.Elements {
		elems[i] = umesh.Element{Type: e.Type, IDs: e.IDs, Marker: e.Marker}
	}
	m, err := umesh.New(pts, elems)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	for id, name := range d.BlockNames {
		m.SetBlockName(id, name)
	}
	for id, pairs := range d.SideSets {
		sides := make([]umesh.Side, len(pairs))
		for i, p := range pairs {
			sides[i] = umesh.Side{Elem: p[0], Side: p[1]}
		}
		if err := m.SetSideSet(id, sides); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
	}
	for id, name := range d.SideSetNames {
		m.SetSideSetName(id, name)
	}
	for id, b := range d.NodeSets {
		bm := roaring.New()
		if err := bm.UnmarshalBinary(b); err != nil {
			return nil, fmt.Errorf("%w: node set %d: %w", ErrFormat, id, err)
		}
		if err := m.SetNodeSet(id, bm); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
	}
	for id, name := range d.NodeSetNames {
		m.SetNodeSetName(id, name)
	}
	return m, nil
}

// Marshal returns the .kmsh encoding of m.
func Marshal(m *umesh.Mesh, c Compression) ([]byte, error) {
	d, err := toDocument(m)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("meshio: encode: %w", err)
	}
	if uint64(len(payload)) > math.MaxUint32 {
		return nil, errs.Errorf(errs.ErrInvalidParameter, "meshio: payload of %d bytes is too large", len(payload))
	}
	stored, packed, err := compress(payload, c)
	if err != nil {
		return nil, err
	}

	out := make([]byte, headerSize, headerSize+len(stored))
	copy(out, magic)
	out[4] = version
	out[5] = byte(c)
	binary.LittleEndian.PutUint32(out[6:], uint32(len(payload)))
	if packed {
		binary.LittleEndian.PutUint32(out[10:], uint32(len(stored)))
	}
	return append(out, stored...), nil
}

// Unmarshal decodes a .kmsh byte slice.
func Unmarshal(data []byte) (*umesh.Mesh, error) {
	if len(data) < headerSize || string(data[:4]) != magic {
		return nil, fmt.Errorf("%w: bad magic", ErrFormat)
	}
	if data[4] != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrFormat, data[4])
	}
	c := Compression(data[5])
	size := int(binary.LittleEndian.Uint32(data[6:]))
	storedSize := int(binary.LittleEndian.Uint32(data[10:]))
	body := data[headerSize:]

	var payload []byte
	if storedSize == 0 {
		if len(body) < size {
			return nil, fmt.Errorf("%w: truncated payload", ErrFormat)
		}
		payload = body[:size]
	} else {
		if len(body) < storedSize {
			return nil, fmt.Errorf("%w: truncated payload", ErrFormat)
		}
		if size/maxExpansion > storedSize {
			return nil, fmt.Errorf("%w: payload size %d is implausible for %d stored bytes", ErrFormat, size, storedSize)
		}
		var err error
		if payload, err = decompress(body[:storedSize], size, c); err != nil {
			return nil, err
		}
	}

	var d document
	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return d.mesh()
}

// Encode writes the .kmsh encoding of m to w.
func Encode(w io.Writer, m *umesh.Mesh, c Compression) error {
	data, err := Marshal(m, c)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Decode reads a whole .kmsh stream from r.
func Decode(r io.Reader) (*umesh.Mesh, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("meshio: read: %w", err)
	}
	return Unmarshal(buf.Bytes())
}
