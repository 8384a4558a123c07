package fbutil

import (
	flatbuffers "github.com/google/flatbuffers/go"
	"golang.org/x/xerrors"

	"scenelab/internal/reflection"
)

const (
	maxVerifyDepth  = 64
	maxVerifyTables = 1000000
)

type verifier struct {
	schema *reflection.Schema
	buf    []byte
	tables int
}

// Verify checks that buf holds a well-formed instance of root: every offset,
// vtable, string and vector lies inside the buffer and every nested table
// verifies in turn.
func Verify(s *reflection.Schema, root *reflection.Object, buf []byte) error {
	if len(buf) < 8 || len(buf) >= 1<<31 {
		return xerrors.Errorf("%d bytes: %w", len(buf), ErrTruncated)
	}
	v := &verifier{schema: s, buf: buf}
	return v.table(root, RootPos(buf), 0)
}

func (v *verifier) fits(pos, size uint32) bool {
	return uint64(pos)+uint64(size) <= uint64(len(v.buf))
}

func (v *verifier) deref(loc uint32) (uint32, error) {
	if !v.fits(loc, 4) {
		return 0, xerrors.Errorf("offset at %d: %w", loc, ErrBadOffset)
	}
	o := flatbuffers.GetUOffsetT(v.buf[loc:])
	target := uint64(loc) + uint64(o)
	if o == 0 || target+4 > uint64(len(v.buf)) {
		return 0, xerrors.Errorf("offset %d at %d: %w", o, loc, ErrBadOffset)
	}
	return uint32(target), nil
}

func (v *verifier) table(obj *reflection.Object, pos uint32, depth int) error {
	v.tables++
	if depth > maxVerifyDepth || v.tables > maxVerifyTables {
		return xerrors.Errorf("%s at %d: nesting too deep: %w", obj.Name, pos, ErrBadOffset)
	}
	if !v.fits(pos, 4) {
		return xerrors.Errorf("%s at %d: %w", obj.Name, pos, ErrTruncated)
	}
	vtable := int64(pos) - int64(flatbuffers.GetSOffsetT(v.buf[pos:]))
	if vtable < 0 || !v.fits(uint32(vtable), 4) {
		return xerrors.Errorf("%s at %d: vtable %d: %w", obj.Name, pos, vtable, ErrBadOffset)
	}
	vt := uint32(vtable)
	vtLen := uint32(flatbuffers.GetVOffsetT(v.buf[vt:]))
	objLen := uint32(flatbuffers.GetVOffsetT(v.buf[vt+2:]))
	if vtLen < 4 || vtLen%2 != 0 || !v.fits(vt, vtLen) || !v.fits(pos, objLen) {
		return xerrors.Errorf("%s at %d: vtable size %d object size %d: %w", obj.Name, pos, vtLen, objLen, ErrBadOffset)
	}

	for _, f := range obj.Fields {
		var fo uint32
		if uint32(f.Offset)+2 <= vtLen {
			fo = uint32(flatbuffers.GetVOffsetT(v.buf[vt+uint32(f.Offset):]))
		}
		if fo == 0 {
			if f.Required {
				return xerrors.Errorf("%s.%s: required field missing: %w", obj.Name, f.Name, ErrBadOffset)
			}
			continue
		}
		t := f.Type
		size := uint32(v.schema.InlineSize(t.BaseType, t.Index))
		if fo+size > objLen {
			return xerrors.Errorf("%s.%s: field outside object: %w", obj.Name, f.Name, ErrBadOffset)
		}
		loc := pos + fo
		switch t.BaseType {
		case reflection.String:
			ref, err := v.deref(loc)
			if err != nil {
				return xerrors.Errorf("%s.%s: %w", obj.Name, f.Name, err)
			}
			if err := v.str(ref); err != nil {
				return xerrors.Errorf("%s.%s: %w", obj.Name, f.Name, err)
			}
		case reflection.Obj:
			sub := v.schema.Object(t.Index)
			if sub.IsStruct {
				continue
			}
			ref, err := v.deref(loc)
			if err != nil {
				return xerrors.Errorf("%s.%s: %w", obj.Name, f.Name, err)
			}
			if err := v.table(sub, ref, depth+1); err != nil {
				return err
			}
		case reflection.Union:
			u, err := UnionObject(v.schema, obj, f, v.buf, pos)
			if err != nil {
				return xerrors.Errorf("%s.%s: %w", obj.Name, f.Name, err)
			}
			if u == nil {
				continue
			}
			ref, err := v.deref(loc)
			if err != nil {
				return xerrors.Errorf("%s.%s: %w", obj.Name, f.Name, err)
			}
			if err := v.table(u, ref, depth+1); err != nil {
				return err
			}
		case reflection.Vector:
			ref, err := v.deref(loc)
			if err != nil {
				return xerrors.Errorf("%s.%s: %w", obj.Name, f.Name, err)
			}
			if err := v.vector(t, ref, depth); err != nil {
				return xerrors.Errorf("%s.%s: %w", obj.Name, f.Name, err)
			}
		case reflection.Array, reflection.Vector64:
			return xerrors.Errorf("%s.%s: %s: %w", obj.Name, f.Name, t.BaseType, ErrUnsupported)
		}
	}
	return nil
}

func (v *verifier) str(pos uint32) error {
	n := flatbuffers.GetUint32(v.buf[pos:])
	if !v.fits(pos, 4+n+1) {
		return xerrors.Errorf("string of %d bytes at %d: %w", n, pos, ErrTruncated)
	}
	if v.buf[pos+4+n] != 0 {
		return xerrors.Errorf("string at %d not terminated: %w", pos, ErrBadOffset)
	}
	return nil
}

func (v *verifier) vector(t reflection.Type, pos uint32, depth int) error {
	n := uint64(flatbuffers.GetUint32(v.buf[pos:]))
	elemSize := uint64(v.schema.InlineSize(t.Element, t.Index))
	if uint64(pos)+4+n*elemSize > uint64(len(v.buf)) {
		return xerrors.Errorf("vector of %d at %d: %w", n, pos, ErrTruncated)
	}
	switch {
	case t.Element == reflection.String:
		for i := 0; i < int(n); i++ {
			ref, err := v.deref(VectorElem(pos, i, 4))
			if err != nil {
				return err
			}
			if err := v.str(ref); err != nil {
				return err
			}
		}
	case t.Element == reflection.Obj && !v.schema.IsStructType(t.Element, t.Index):
		sub := v.schema.Object(t.Index)
		for i := 0; i < int(n); i++ {
			ref, err := v.deref(VectorElem(pos, i, 4))
			if err != nil {
				return err
			}
			if err := v.table(sub, ref, depth+1); err != nil {
				return err
			}
		}
	case t.Element == reflection.Union:
		return xerrors.Errorf("vector of unions: %w", ErrUnsupported)
	}
	return nil
}
