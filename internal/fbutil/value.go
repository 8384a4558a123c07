package fbutil

import (
	"fmt"
	"strconv"

	flatbuffers "github.com/google/flatbuffers/go"
	"golang.org/x/xerrors"

	"scenelab/internal/reflection"
)

// Value trees mirror a buffer with plain Go values: map[string]any for
// tables and structs, []any for vectors, string for strings, bool for bools,
// uint64 for ULong, float64 for floats and int64 for every other integer.
// Absent table fields are omitted; a union's payload sits under the union
// field's name next to its "<name>_type" selector.

// Decode converts the root table of buf into a value tree.
func Decode(s *reflection.Schema, root *reflection.Object, buf []byte) (v map[string]any, err error) {
	if len(buf) < 4 {
		return nil, ErrTruncated
	}
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, xerrors.Errorf("decode %s: %v: %w", root.Name, r, ErrBadOffset)
		}
	}()
	return decodeTable(s, root, buf, RootPos(buf))
}

func decodeTable(s *reflection.Schema, obj *reflection.Object, buf []byte, pos uint32) (map[string]any, error) {
	out := make(map[string]any)
	for _, f := range obj.Fields {
		p := FieldPos(buf, pos, f)
		if p == 0 {
			continue
		}
		t := f.Type
		switch {
		case t.BaseType.IsScalar():
			out[f.Name] = decodeScalar(buf, t.BaseType, p)
		case t.BaseType == reflection.String:
			out[f.Name] = GetString(buf, Deref(buf, p))
		case t.BaseType == reflection.Obj:
			sub := s.Object(t.Index)
			if sub.IsStruct {
				out[f.Name] = decodeStruct(s, sub, buf, p)
				continue
			}
			v, err := decodeTable(s, sub, buf, Deref(buf, p))
			if err != nil {
				return nil, err
			}
			out[f.Name] = v
		case t.BaseType == reflection.Union:
			u, err := UnionObject(s, obj, f, buf, pos)
			if err != nil {
				return nil, err
			}
			if u == nil {
				continue
			}
			v, err := decodeTable(s, u, buf, Deref(buf, p))
			if err != nil {
				return nil, err
			}
			out[f.Name] = v
		case t.BaseType == reflection.Vector:
			v, err := decodeVector(s, t, buf, Deref(buf, p))
			if err != nil {
				return nil, xerrors.Errorf("%s.%s: %w", obj.Name, f.Name, err)
			}
			out[f.Name] = v
		default:
			return nil, xerrors.Errorf("%s.%s: %s: %w", obj.Name, f.Name, t.BaseType, ErrUnsupported)
		}
	}
	return out, nil
}

func decodeVector(s *reflection.Schema, t reflection.Type, buf []byte, pos uint32) ([]any, error) {
	n := VectorLen(buf, pos)
	out := make([]any, n)
	size := s.InlineSize(t.Element, t.Index)
	for i := range out {
		p := VectorElem(pos, i, size)
		switch {
		case t.Element.IsScalar():
			out[i] = decodeScalar(buf, t.Element, p)
		case t.Element == reflection.String:
			out[i] = GetString(buf, Deref(buf, p))
		case t.Element == reflection.Obj:
			sub := s.Object(t.Index)
			if sub.IsStruct {
				out[i] = decodeStruct(s, sub, buf, p)
				continue
			}
			v, err := decodeTable(s, sub, buf, Deref(buf, p))
			if err != nil {
				return nil, err
			}
			out[i] = v
		default:
			return nil, xerrors.Errorf("vector of %s: %w", t.Element, ErrUnsupported)
		}
	}
	return out, nil
}

func decodeStruct(s *reflection.Schema, obj *reflection.Object, buf []byte, pos uint32) map[string]any {
	out := make(map[string]any, len(obj.Fields))
	for _, f := range obj.Fields {
		p := pos + uint32(f.Offset)
		if f.Type.BaseType == reflection.Obj {
			out[f.Name] = decodeStruct(s, s.Object(f.Type.Index), buf, p)
		} else {
			out[f.Name] = decodeScalar(buf, f.Type.BaseType, p)
		}
	}
	return out
}

func decodeScalar(buf []byte, bt reflection.BaseType, pos uint32) any {
	switch {
	case bt == reflection.Bool:
		return ReadInt(buf, bt, pos) != 0
	case bt.IsFloat():
		return ReadFloat(buf, bt, pos)
	case bt == reflection.ULong:
		return flatbuffers.GetUint64(buf[pos:])
	}
	return ReadInt(buf, bt, pos)
}

// Encode builds a buffer holding v as an instance of root.
func Encode(s *reflection.Schema, root *reflection.Object, v map[string]any) ([]byte, error) {
	b := flatbuffers.NewBuilder(256)
	off, err := encodeTable(b, s, root, v)
	if err != nil {
		return nil, err
	}
	b.Finish(off)
	fin := b.FinishedBytes()
	out := make([]byte, len(fin))
	copy(out, fin)
	return out, nil
}

func encodeTable(b *flatbuffers.Builder, s *reflection.Schema, obj *reflection.Object, v map[string]any) (flatbuffers.UOffsetT, error) {
	for k := range v {
		if obj.FieldByName(k) == nil {
			return 0, xerrors.Errorf("%s has no field %q: %w", obj.Name, k, reflection.ErrNoObject)
		}
	}

	offsets := make(map[string]flatbuffers.UOffsetT)
	for _, f := range obj.Fields {
		val, ok := v[f.Name]
		if !ok {
			continue
		}
		var off flatbuffers.UOffsetT
		var err error
		switch t := f.Type; t.BaseType {
		case reflection.String:
			str, isStr := val.(string)
			if !isStr {
				return 0, xerrors.Errorf("%s.%s: want string, got %T: %w", obj.Name, f.Name, val, ErrBadScalar)
			}
			off = b.CreateString(str)
		case reflection.Obj:
			sub := s.Object(t.Index)
			if sub.IsStruct {
				continue
			}
			off, err = encodeSub(b, s, sub, val)
		case reflection.Union:
			sel := obj.UnionTypeField(f)
			if sel == nil {
				return 0, xerrors.Errorf("%s.%s: %w", obj.Name, f.Name, ErrUnsupported)
			}
			code, cerr := toInt(v[sel.Name])
			if cerr != nil {
				return 0, xerrors.Errorf("%s.%s: %w", obj.Name, sel.Name, cerr)
			}
			var sub *reflection.Object
			if sub, err = s.UnionObject(f, code); err == nil {
				off, err = encodeSub(b, s, sub, val)
			}
		case reflection.Vector:
			off, err = encodeVector(b, s, t, val)
		default:
			continue
		}
		if err != nil {
			return 0, xerrors.Errorf("%s.%s: %w", obj.Name, f.Name, err)
		}
		offsets[f.Name] = off
	}

	b.StartObject(obj.NumSlots())
	for _, f := range obj.Fields {
		val, ok := v[f.Name]
		if !ok {
			continue
		}
		t := f.Type
		switch {
		case s.IsStructType(t.BaseType, t.Index):
			sub := s.Object(t.Index)
			data := make([]byte, sub.ByteSize)
			if err := encodeStruct(s, sub, val, data); err != nil {
				return 0, xerrors.Errorf("%s.%s: %w", obj.Name, f.Name, err)
			}
			inlineBytes(b, data, int(sub.MinAlign))
			b.Slot(f.Slot())
		case t.BaseType.IsScalar():
			data := make([]byte, t.BaseType.Size())
			if err := putScalar(data, t.BaseType, val); err != nil {
				return 0, xerrors.Errorf("%s.%s: %w", obj.Name, f.Name, err)
			}
			inlineBytes(b, data, len(data))
			b.Slot(f.Slot())
		default:
			b.PrependUOffsetTSlot(f.Slot(), offsets[f.Name], 0)
		}
	}
	return b.EndObject(), nil
}

func encodeSub(b *flatbuffers.Builder, s *reflection.Schema, obj *reflection.Object, val any) (flatbuffers.UOffsetT, error) {
	m, ok := val.(map[string]any)
	if !ok {
		return 0, xerrors.Errorf("want table %s, got %T: %w", obj.Name, val, ErrBadScalar)
	}
	return encodeTable(b, s, obj, m)
}

func encodeVector(b *flatbuffers.Builder, s *reflection.Schema, t reflection.Type, val any) (flatbuffers.UOffsetT, error) {
	items, ok := val.([]any)
	if !ok {
		return 0, xerrors.Errorf("want vector, got %T: %w", val, ErrBadScalar)
	}
	n := len(items)
	switch {
	case t.Element == reflection.String || (t.Element == reflection.Obj && !s.IsStructType(t.Element, t.Index)):
		offs := make([]flatbuffers.UOffsetT, n)
		for i, it := range items {
			if t.Element == reflection.String {
				str, isStr := it.(string)
				if !isStr {
					return 0, xerrors.Errorf("[%d]: want string, got %T: %w", i, it, ErrBadScalar)
				}
				offs[i] = b.CreateString(str)
				continue
			}
			var err error
			if offs[i], err = encodeSub(b, s, s.Object(t.Index), it); err != nil {
				return 0, xerrors.Errorf("[%d]: %w", i, err)
			}
		}
		b.StartVector(4, n, 4)
		for i := n - 1; i >= 0; i-- {
			b.PrependUOffsetT(offs[i])
		}
		return b.EndVector(n), nil
	case t.Element == reflection.Obj || t.Element.IsScalar():
		size := s.InlineSize(t.Element, t.Index)
		data := make([]byte, n*size)
		for i, it := range items {
			elem := data[i*size : (i+1)*size]
			var err error
			if t.Element == reflection.Obj {
				err = encodeStruct(s, s.Object(t.Index), it, elem)
			} else {
				err = putScalar(elem, t.Element, it)
			}
			if err != nil {
				return 0, xerrors.Errorf("[%d]: %w", i, err)
			}
		}
		b.StartVector(size, n, s.InlineAlign(t.Element, t.Index))
		for i := len(data) - 1; i >= 0; i-- {
			b.PlaceByte(data[i])
		}
		return b.EndVector(n), nil
	}
	return 0, xerrors.Errorf("vector of %s: %w", t.Element, ErrUnsupported)
}

func encodeStruct(s *reflection.Schema, obj *reflection.Object, val any, dst []byte) error {
	m, ok := val.(map[string]any)
	if !ok {
		return xerrors.Errorf("want struct %s, got %T: %w", obj.Name, val, ErrBadScalar)
	}
	for _, f := range obj.Fields {
		fv, ok := m[f.Name]
		if !ok {
			continue
		}
		field := dst[f.Offset:]
		if f.Type.BaseType == reflection.Obj {
			if err := encodeStruct(s, s.Object(f.Type.Index), fv, field); err != nil {
				return xerrors.Errorf("%s.%s: %w", obj.Name, f.Name, err)
			}
			continue
		}
		if err := putScalar(field, f.Type.BaseType, fv); err != nil {
			return xerrors.Errorf("%s.%s: %w", obj.Name, f.Name, err)
		}
	}
	return nil
}

func inlineBytes(b *flatbuffers.Builder, data []byte, align int) {
	b.Prep(align, len(data))
	for i := len(data) - 1; i >= 0; i-- {
		b.PlaceByte(data[i])
	}
}

// putScalar stores a Go value into dst[0:] as type bt, going through the
// same text parser the editor uses so range checks match.
func putScalar(dst []byte, bt reflection.BaseType, val any) error {
	var text string
	switch x := val.(type) {
	case bool:
		text = strconv.FormatBool(x)
	case string:
		text = x
	case float32:
		text = strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		if bt.IsInteger() && x == float64(int64(x)) {
			text = strconv.FormatInt(int64(x), 10)
		} else {
			text = strconv.FormatFloat(x, 'g', -1, 64)
		}
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		text = fmt.Sprint(x)
	default:
		return xerrors.Errorf("%T as %s: %w", val, bt, ErrBadScalar)
	}
	return SetScalar(dst, bt, 0, text)
}

func toInt(val any) (int64, error) {
	switch x := val.(type) {
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case uint8:
		return int64(x), nil
	case uint64:
		return int64(x), nil
	case float64:
		return int64(x), nil
	case nil:
		return 0, xerrors.Errorf("missing union selector: %w", ErrBadScalar)
	}
	return strconv.ParseInt(fmt.Sprint(val), 10, 64)
}
