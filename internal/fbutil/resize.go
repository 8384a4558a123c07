package fbutil

import (
	flatbuffers "github.com/google/flatbuffers/go"

	"scenelab/internal/reflection"
)

// resizer inserts or removes bytes at start and patches every offset in the
// buffer that spans the edit point.
type resizer struct {
	schema *reflection.Schema
	buf    []byte
	start  uint32
	delta  int32
	// visited marks 4-byte words whose offset was already patched, since
	// tables and vectors can be shared.
	visited []bool
}

// Resize grows (delta > 0) or shrinks (delta < 0) buf at start, rounding
// delta up to a multiple of 8 so every alignment in the buffer survives.
// Inserted bytes are zero. When shrinking, the removed bytes must be
// unreferenced. It returns the new buffer; all positions at or after start
// are stale afterwards.
func Resize(s *reflection.Schema, root *reflection.Object, buf []byte, start uint32, delta int) []byte {
	delta = (delta + 7) &^ 7
	if delta == 0 {
		return buf
	}
	r := &resizer{
		schema:  s,
		buf:     buf,
		start:   start,
		delta:   int32(delta),
		visited: make([]bool, (len(buf)+3)/4),
	}
	rootPos := RootPos(buf)
	r.straddle(0, rootPos, 0, false, 1)
	r.table(root, rootPos)

	var out []byte
	if delta > 0 {
		out = make([]byte, len(buf)+delta)
		copy(out, buf[:start])
		copy(out[int(start)+delta:], buf[start:])
	} else {
		cut := int(start) + delta
		out = make([]byte, len(buf)+delta)
		copy(out, buf[:cut])
		copy(out[cut:], buf[start:])
	}
	return out
}

// straddle patches the offset stored at loc when the span it covers, from
// first to second, contains the edit point. A span starting exactly at the
// edit point moves as a whole and is left alone. Signed offsets move by
// dir*delta; unsigned offsets always point forward and grow by delta.
func (r *resizer) straddle(first, second, loc uint32, signed bool, dir int32) {
	if !(first < r.start && r.start <= second) {
		return
	}
	b := r.buf[loc:]
	if signed {
		flatbuffers.WriteSOffsetT(b, flatbuffers.GetSOffsetT(b)+flatbuffers.SOffsetT(r.delta*dir))
	} else {
		flatbuffers.WriteUOffsetT(b, flatbuffers.GetUOffsetT(b)+flatbuffers.UOffsetT(r.delta))
	}
	r.visited[loc/4] = true
}

func (r *resizer) fieldOffset(vtable uint32, f *reflection.Field) uint32 {
	vtLen := uint32(flatbuffers.GetVOffsetT(r.buf[vtable:]))
	if uint32(f.Offset) >= vtLen {
		return 0
	}
	return uint32(flatbuffers.GetVOffsetT(r.buf[vtable+uint32(f.Offset):]))
}

func (r *resizer) table(obj *reflection.Object, pos uint32) {
	if r.visited[pos/4] {
		return
	}
	vtable := uint32(int64(pos) - int64(flatbuffers.GetSOffsetT(r.buf[pos:])))
	if r.start <= pos {
		// Only the link to a vtable before the edit point can change; the
		// table's fields move together with it.
		r.straddle(vtable, pos, pos, true, 1)
		return
	}
	for _, f := range obj.Fields {
		bt := f.Type.BaseType
		if !bt.IsOffset() {
			continue
		}
		var sub *reflection.Object
		if bt == reflection.Obj {
			sub = r.schema.Object(f.Type.Index)
			if sub.IsStruct {
				continue
			}
		}
		fo := r.fieldOffset(vtable, f)
		if fo == 0 {
			continue
		}
		loc := pos + fo
		if r.visited[loc/4] {
			continue
		}
		ref := loc + uint32(flatbuffers.GetUOffsetT(r.buf[loc:]))
		r.straddle(loc, ref, loc, false, 1)
		switch bt {
		case reflection.Obj:
			r.table(sub, ref)
		case reflection.Vector:
			r.vector(f.Type, ref)
		case reflection.Union:
			if u, err := UnionObject(r.schema, obj, f, r.buf, pos); err == nil && u != nil {
				r.table(u, ref)
			}
		}
	}
	// A vtable after the table moves when the edit point lies between them.
	r.straddle(pos, vtable, pos, true, -1)
}

func (r *resizer) vector(t reflection.Type, vecPos uint32) {
	var sub *reflection.Object
	switch t.Element {
	case reflection.String:
	case reflection.Obj:
		sub = r.schema.Object(t.Index)
		if sub.IsStruct {
			return
		}
	default:
		return
	}
	n := VectorLen(r.buf, vecPos)
	for i := 0; i < n; i++ {
		loc := VectorElem(vecPos, i, 4)
		if r.visited[loc/4] {
			continue
		}
		ref := loc + uint32(flatbuffers.GetUOffsetT(r.buf[loc:]))
		r.straddle(loc, ref, loc, false, 1)
		if sub != nil {
			r.table(sub, ref)
		}
	}
}

// SetString replaces the contents of the string at strPos. When the length
// changes the buffer is resized at the end of the old contents and the new
// buffer is returned with resized set.
func SetString(s *reflection.Schema, root *reflection.Object, buf []byte, strPos uint32, val string) (out []byte, resized bool) {
	oldLen := flatbuffers.GetUint32(buf[strPos:])
	if int(oldLen) != len(val) {
		end := strPos + 4 + oldLen
		clear(buf[strPos+4 : end])
		buf = Resize(s, root, buf, end, len(val)-int(oldLen))
		flatbuffers.WriteUint32(buf[strPos:], uint32(len(val)))
		resized = true
	}
	copy(buf[strPos+4:], val)
	buf[strPos+4+uint32(len(val))] = 0
	return buf, resized
}

// ResizeVector changes the element count of the vector at vecPos. New
// elements are zero bytes; shrinking drops elements from the end. Vectors of
// strings or tables end up with zero offsets in new slots, so callers
// rebuild the buffer with CopyTable before reading it again.
func ResizeVector(s *reflection.Schema, root *reflection.Object, buf []byte, vecPos uint32, newSize, elemSize int) []byte {
	n := VectorLen(buf, vecPos)
	deltaElems := newSize - n
	if deltaElems == 0 {
		return buf
	}
	start := VectorElem(vecPos, n, elemSize)
	if deltaElems < 0 {
		clear(buf[start-uint32(-deltaElems*elemSize) : start])
	}
	buf = Resize(s, root, buf, start, deltaElems*elemSize)
	flatbuffers.WriteUint32(buf[vecPos:], uint32(newSize))
	if deltaElems > 0 {
		clear(buf[start : start+uint32(deltaElems*elemSize)])
	}
	return buf
}
