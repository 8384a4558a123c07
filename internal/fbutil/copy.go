package fbutil

import (
	flatbuffers "github.com/google/flatbuffers/go"
	"golang.org/x/xerrors"

	"scenelab/internal/reflection"
)

// addition names a field to create while copying: field f of the table that
// sits at tablePos in the source buffer.
type addition struct {
	tablePos uint32
	field    *reflection.Field
}

type copier struct {
	schema *reflection.Schema
	src    []byte
	b      *flatbuffers.Builder
	add    *addition
}

// CopyTable deep-copies the root table of src into a freshly built buffer.
// Only fields present in src are copied, so presence is preserved; the result
// is compact and has no unreachable bytes.
func CopyTable(s *reflection.Schema, root *reflection.Object, src []byte) ([]byte, error) {
	return copyRoot(s, root, src, nil)
}

// AddField returns a copy of buf in which field f of the table at tablePos
// exists with its default value: the schema default for scalars, zeroes for
// structs, and empty strings, vectors and tables. Unions cannot be added
// because the payload type is unknown.
func AddField(s *reflection.Schema, root *reflection.Object, buf []byte, tablePos uint32, f *reflection.Field) ([]byte, error) {
	if f.Type.BaseType == reflection.Union || f.Type.BaseType == reflection.Array {
		return nil, xerrors.Errorf("add %s: %w", f.Name, ErrUnsupported)
	}
	if HasField(buf, tablePos, f) {
		return buf, nil
	}
	return copyRoot(s, root, buf, &addition{tablePos: tablePos, field: f})
}

func copyRoot(s *reflection.Schema, root *reflection.Object, src []byte, add *addition) (out []byte, err error) {
	if len(src) < 4 {
		return nil, ErrTruncated
	}
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, xerrors.Errorf("copy %s: %v: %w", root.Name, r, ErrBadOffset)
		}
	}()
	c := &copier{schema: s, src: src, b: flatbuffers.NewBuilder(len(src)), add: add}
	off, err := c.table(root, RootPos(src))
	if err != nil {
		return nil, err
	}
	c.b.Finish(off)
	fin := c.b.FinishedBytes()
	out = make([]byte, len(fin))
	copy(out, fin)
	return out, nil
}

func (c *copier) adding(pos uint32, f *reflection.Field) bool {
	return c.add != nil && c.add.tablePos == pos && c.add.field == f
}

// table copies the table at pos. Children are built first since the builder
// cannot nest objects.
func (c *copier) table(obj *reflection.Object, pos uint32) (flatbuffers.UOffsetT, error) {
	offsets := make([]flatbuffers.UOffsetT, len(obj.Fields))
	present := make([]bool, len(obj.Fields))
	for i, f := range obj.Fields {
		adding := c.adding(pos, f)
		present[i] = adding || HasField(c.src, pos, f)
		if !present[i] {
			continue
		}
		var err error
		switch f.Type.BaseType {
		case reflection.String:
			if adding {
				offsets[i] = c.b.CreateString("")
			} else {
				offsets[i] = c.b.CreateByteString(c.stringBytes(RefPos(c.src, pos, f)))
			}
		case reflection.Obj:
			sub := c.schema.Object(f.Type.Index)
			if sub.IsStruct {
				continue
			}
			if adding {
				c.b.StartObject(0)
				offsets[i] = c.b.EndObject()
			} else {
				offsets[i], err = c.table(sub, RefPos(c.src, pos, f))
			}
		case reflection.Union:
			var sub *reflection.Object
			sub, err = UnionObject(c.schema, obj, f, c.src, pos)
			if err == nil && sub == nil {
				present[i] = false
				continue
			}
			if err == nil {
				offsets[i], err = c.table(sub, RefPos(c.src, pos, f))
			}
		case reflection.Vector:
			if adding {
				align := c.schema.InlineAlign(f.Type.Element, f.Type.Index)
				c.b.StartVector(c.schema.InlineSize(f.Type.Element, f.Type.Index), 0, align)
				offsets[i] = c.b.EndVector(0)
			} else {
				offsets[i], err = c.vector(f.Type, RefPos(c.src, pos, f))
			}
		case reflection.Array, reflection.Vector64:
			err = xerrors.Errorf("%s.%s: %s: %w", obj.Name, f.Name, f.Type.BaseType, ErrUnsupported)
		}
		if err != nil {
			return 0, err
		}
	}

	c.b.StartObject(obj.NumSlots())
	for i, f := range obj.Fields {
		if !present[i] {
			continue
		}
		slot := f.Slot()
		switch bt := f.Type.BaseType; {
		case bt == reflection.Obj && c.schema.IsStructType(bt, f.Type.Index):
			sub := c.schema.Object(f.Type.Index)
			var data []byte
			if c.adding(pos, f) {
				data = make([]byte, sub.ByteSize)
			} else {
				data = StructBytes(c.src, FieldPos(c.src, pos, f), sub)
			}
			c.inline(data, int(sub.MinAlign))
			c.b.Slot(slot)
		case bt.IsOffset():
			c.b.PrependUOffsetTSlot(slot, offsets[i], 0)
		case bt.IsScalar():
			var data []byte
			if c.adding(pos, f) {
				data = defaultBytes(f)
			} else {
				p := FieldPos(c.src, pos, f)
				data = c.src[p : p+uint32(bt.Size())]
			}
			c.inline(data, bt.Size())
			c.b.Slot(slot)
		}
	}
	return c.b.EndObject(), nil
}

// inline writes raw little-endian bytes aligned to align.
func (c *copier) inline(data []byte, align int) {
	c.b.Prep(align, len(data))
	for i := len(data) - 1; i >= 0; i-- {
		c.b.PlaceByte(data[i])
	}
}

func (c *copier) stringBytes(strPos uint32) []byte {
	n := flatbuffers.GetUint32(c.src[strPos:])
	return c.src[strPos+4 : strPos+4+n]
}

func (c *copier) vector(t reflection.Type, vecPos uint32) (flatbuffers.UOffsetT, error) {
	n := VectorLen(c.src, vecPos)
	switch {
	case t.Element == reflection.String:
		offs := make([]flatbuffers.UOffsetT, n)
		for i := range offs {
			offs[i] = c.b.CreateByteString(c.stringBytes(Deref(c.src, VectorElem(vecPos, i, 4))))
		}
		return c.offsetVector(offs), nil
	case t.Element == reflection.Obj && !c.schema.IsStructType(t.Element, t.Index):
		sub := c.schema.Object(t.Index)
		offs := make([]flatbuffers.UOffsetT, n)
		for i := range offs {
			var err error
			if offs[i], err = c.table(sub, Deref(c.src, VectorElem(vecPos, i, 4))); err != nil {
				return 0, err
			}
		}
		return c.offsetVector(offs), nil
	case t.Element == reflection.Obj || t.Element.IsScalar():
		size := c.schema.InlineSize(t.Element, t.Index)
		align := c.schema.InlineAlign(t.Element, t.Index)
		c.b.StartVector(size, n, align)
		data := c.src[vecPos+4 : vecPos+4+uint32(n*size)]
		for i := len(data) - 1; i >= 0; i-- {
			c.b.PlaceByte(data[i])
		}
		return c.b.EndVector(n), nil
	}
	return 0, xerrors.Errorf("vector of %s: %w", t.Element, ErrUnsupported)
}

func (c *copier) offsetVector(offs []flatbuffers.UOffsetT) flatbuffers.UOffsetT {
	c.b.StartVector(4, len(offs), 4)
	for i := len(offs) - 1; i >= 0; i-- {
		c.b.PrependUOffsetT(offs[i])
	}
	return c.b.EndVector(len(offs))
}
