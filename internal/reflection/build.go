package reflection

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

// Build serializes s in the .bfbs layout read by Load. Objects and enums are
// written in slice order, so Type.Index values are preserved as given.
func Build(s *Schema) []byte {
	b := flatbuffers.NewBuilder(1024)

	objs := make([]flatbuffers.UOffsetT, len(s.Objects))
	for i, o := range s.Objects {
		objs[i] = buildObject(b, o)
	}
	enums := make([]flatbuffers.UOffsetT, len(s.Enums))
	for i, e := range s.Enums {
		enums[i] = buildEnum(b, e)
	}
	objVec := offsetVector(b, objs)
	enumVec := offsetVector(b, enums)
	ident := optString(b, s.FileIdent)
	ext := optString(b, s.FileExt)
	var root flatbuffers.UOffsetT
	for i, o := range s.Objects {
		if o == s.RootTable {
			root = objs[i]
		}
	}

	b.StartObject(8)
	b.PrependUOffsetTSlot(0, objVec, 0)
	b.PrependUOffsetTSlot(1, enumVec, 0)
	b.PrependUOffsetTSlot(2, ident, 0)
	b.PrependUOffsetTSlot(3, ext, 0)
	b.PrependUOffsetTSlot(4, root, 0)
	b.FinishWithFileIdentifier(b.EndObject(), []byte(FileIdentifier))
	return b.FinishedBytes()
}

func optString(b *flatbuffers.Builder, s string) flatbuffers.UOffsetT {
	if s == "" {
		return 0
	}
	return b.CreateString(s)
}

func offsetVector(b *flatbuffers.Builder, offs []flatbuffers.UOffsetT) flatbuffers.UOffsetT {
	b.StartVector(4, len(offs), 4)
	for i := len(offs) - 1; i >= 0; i-- {
		b.PrependUOffsetT(offs[i])
	}
	return b.EndVector(len(offs))
}

func stringVector(b *flatbuffers.Builder, ss []string) flatbuffers.UOffsetT {
	if len(ss) == 0 {
		return 0
	}
	offs := make([]flatbuffers.UOffsetT, len(ss))
	for i, s := range ss {
		offs[i] = b.CreateString(s)
	}
	return offsetVector(b, offs)
}

func keyValueVector(b *flatbuffers.Builder, kvs []KeyValue) flatbuffers.UOffsetT {
	if len(kvs) == 0 {
		return 0
	}
	offs := make([]flatbuffers.UOffsetT, len(kvs))
	for i, kv := range kvs {
		k := b.CreateString(kv.Key)
		v := optString(b, kv.Value)
		b.StartObject(2)
		b.PrependUOffsetTSlot(0, k, 0)
		b.PrependUOffsetTSlot(1, v, 0)
		offs[i] = b.EndObject()
	}
	return offsetVector(b, offs)
}

func buildType(b *flatbuffers.Builder, t Type) flatbuffers.UOffsetT {
	b.StartObject(6)
	b.PrependInt8Slot(0, int8(t.BaseType), 0)
	b.PrependInt8Slot(1, int8(t.Element), 0)
	b.PrependInt32Slot(2, t.Index, -1)
	b.PrependUint16Slot(3, t.FixedLength, 0)
	b.PrependUint32Slot(4, t.BaseSize, 4)
	b.PrependUint32Slot(5, t.ElementSize, 0)
	return b.EndObject()
}

func buildField(b *flatbuffers.Builder, f *Field) flatbuffers.UOffsetT {
	name := b.CreateString(f.Name)
	typ := buildType(b, f.Type)
	attrs := keyValueVector(b, f.Attributes)
	docs := stringVector(b, f.Documentation)

	b.StartObject(14)
	b.PrependUOffsetTSlot(0, name, 0)
	b.PrependUOffsetTSlot(1, typ, 0)
	b.PrependUint16Slot(2, f.ID, 0)
	b.PrependUint16Slot(3, f.Offset, 0)
	b.PrependInt64Slot(4, f.DefaultInteger, 0)
	b.PrependFloat64Slot(5, f.DefaultReal, 0)
	b.PrependBoolSlot(6, f.Deprecated, false)
	b.PrependBoolSlot(7, f.Required, false)
	b.PrependBoolSlot(8, f.Key, false)
	b.PrependUOffsetTSlot(9, attrs, 0)
	b.PrependUOffsetTSlot(10, docs, 0)
	b.PrependBoolSlot(11, f.Optional, false)
	b.PrependUint16Slot(12, f.Padding, 0)
	return b.EndObject()
}

func buildObject(b *flatbuffers.Builder, o *Object) flatbuffers.UOffsetT {
	name := b.CreateString(o.Name)
	fields := make([]flatbuffers.UOffsetT, len(o.Fields))
	for i, f := range o.Fields {
		fields[i] = buildField(b, f)
	}
	fieldVec := offsetVector(b, fields)
	attrs := keyValueVector(b, o.Attributes)
	docs := stringVector(b, o.Documentation)

	b.StartObject(8)
	b.PrependUOffsetTSlot(0, name, 0)
	b.PrependUOffsetTSlot(1, fieldVec, 0)
	b.PrependBoolSlot(2, o.IsStruct, false)
	b.PrependInt32Slot(3, o.MinAlign, 0)
	b.PrependInt32Slot(4, o.ByteSize, 0)
	b.PrependUOffsetTSlot(5, attrs, 0)
	b.PrependUOffsetTSlot(6, docs, 0)
	return b.EndObject()
}

func buildEnum(b *flatbuffers.Builder, e *Enum) flatbuffers.UOffsetT {
	name := b.CreateString(e.Name)
	vals := make([]flatbuffers.UOffsetT, len(e.Values))
	for i, ev := range e.Values {
		vname := b.CreateString(ev.Name)
		var ut flatbuffers.UOffsetT
		if ev.UnionType != nil {
			ut = buildType(b, *ev.UnionType)
		}
		vdocs := stringVector(b, ev.Documentation)
		vattrs := keyValueVector(b, ev.Attributes)
		b.StartObject(6)
		b.PrependUOffsetTSlot(0, vname, 0)
		b.PrependInt64Slot(1, ev.Value, 0)
		b.PrependUOffsetTSlot(3, ut, 0)
		b.PrependUOffsetTSlot(4, vdocs, 0)
		b.PrependUOffsetTSlot(5, vattrs, 0)
		vals[i] = b.EndObject()
	}
	valVec := offsetVector(b, vals)
	underlying := buildType(b, e.UnderlyingType)
	attrs := keyValueVector(b, e.Attributes)
	docs := stringVector(b, e.Documentation)

	b.StartObject(7)
	b.PrependUOffsetTSlot(0, name, 0)
	b.PrependUOffsetTSlot(1, valVec, 0)
	b.PrependBoolSlot(2, e.IsUnion, false)
	b.PrependUOffsetTSlot(3, underlying, 0)
	b.PrependUOffsetTSlot(4, attrs, 0)
	b.PrependUOffsetTSlot(5, docs, 0)
	return b.EndObject()
}
