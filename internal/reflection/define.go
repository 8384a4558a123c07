package reflection

// Helpers for building schemas in code. Tables get ids and vtable offsets in
// argument order; structs are laid out with natural alignment the way flatc
// lays them out.

func scalarType(bt BaseType) Type {
	return Type{BaseType: bt, Index: -1, BaseSize: uint32(bt.Size())}
}

func ScalarField(name string, bt BaseType) *Field {
	return &Field{Name: name, Type: scalarType(bt)}
}

func StringField(name string) *Field {
	return &Field{Name: name, Type: Type{BaseType: String, Index: -1, BaseSize: 4}}
}

// VectorField declares a vector of scalars or strings.
func VectorField(name string, elem BaseType) *Field {
	return &Field{Name: name, Type: Type{
		BaseType: Vector, Element: elem, Index: -1, BaseSize: 4, ElementSize: uint32(elem.Size()),
	}}
}

// Index returns the position of o in s.Objects, or -1.
func (s *Schema) Index(o *Object) int32 {
	for i, x := range s.Objects {
		if x == o {
			return int32(i)
		}
	}
	return -1
}

func (s *Schema) EnumIndex(e *Enum) int32 {
	for i, x := range s.Enums {
		if x == e {
			return int32(i)
		}
	}
	return -1
}

// ObjectField declares a table or struct valued field.
func (s *Schema) ObjectField(name string, o *Object) *Field {
	size := uint32(4)
	if o.IsStruct {
		size = uint32(o.ByteSize)
	}
	return &Field{Name: name, Type: Type{BaseType: Obj, Index: s.Index(o), BaseSize: size}}
}

// ObjectVectorField declares a vector of tables or structs.
func (s *Schema) ObjectVectorField(name string, o *Object) *Field {
	size := uint32(4)
	if o.IsStruct {
		size = uint32(o.ByteSize)
	}
	return &Field{Name: name, Type: Type{
		BaseType: Vector, Element: Obj, Index: s.Index(o), BaseSize: 4, ElementSize: size,
	}}
}

// EnumField declares a scalar field typed by enum e.
func (s *Schema) EnumField(name string, e *Enum) *Field {
	t := scalarType(e.UnderlyingType.BaseType)
	t.Index = s.EnumIndex(e)
	return &Field{Name: name, Type: t}
}

// EnumVectorField declares a vector whose elements are typed by enum e.
func (s *Schema) EnumVectorField(name string, e *Enum) *Field {
	f := VectorField(name, e.UnderlyingType.BaseType)
	f.Type.Index = s.EnumIndex(e)
	return f
}

// UnionFields declares the selector and value fields of a union. Both must
// be passed to AddTable, selector first.
func (s *Schema) UnionFields(name string, u *Enum) (selector, value *Field) {
	idx := s.EnumIndex(u)
	selector = &Field{Name: name + "_type", Type: Type{BaseType: UType, Index: idx, BaseSize: 1}}
	value = &Field{Name: name, Type: Type{BaseType: Union, Index: idx, BaseSize: 4}}
	return selector, value
}

func (s *Schema) AddTable(name string, fields ...*Field) *Object {
	o := &Object{Name: name, Fields: fields, MinAlign: 1}
	for i, f := range fields {
		f.ID = uint16(i)
		f.Offset = VTableOffset(f.ID)
	}
	s.Objects = append(s.Objects, o)
	return o
}

func (s *Schema) AddStruct(name string, fields ...*Field) *Object {
	o := &Object{Name: name, Fields: fields, IsStruct: true, MinAlign: 1}
	off := 0
	for i, f := range fields {
		size := s.InlineSize(f.Type.BaseType, f.Type.Index)
		align := s.InlineAlign(f.Type.BaseType, f.Type.Index)
		if pad := (align - off%align) % align; pad > 0 {
			if i > 0 {
				fields[i-1].Padding = uint16(pad)
			}
			off += pad
		}
		f.ID = uint16(i)
		f.Offset = uint16(off)
		off += size
		if int32(align) > o.MinAlign {
			o.MinAlign = int32(align)
		}
	}
	if pad := (int(o.MinAlign) - off%int(o.MinAlign)) % int(o.MinAlign); pad > 0 && len(fields) > 0 {
		fields[len(fields)-1].Padding = uint16(pad)
		off += pad
	}
	o.ByteSize = int32(off)
	s.Objects = append(s.Objects, o)
	return o
}

// AddEnum declares an enum; values keep their declaration order.
func (s *Schema) AddEnum(name string, underlying BaseType, values ...*EnumVal) *Enum {
	e := &Enum{Name: name, Values: values, UnderlyingType: scalarType(underlying)}
	s.Enums = append(s.Enums, e)
	return e
}

// AddUnion declares a union over the given tables; NONE is value 0.
func (s *Schema) AddUnion(name string, members ...*Object) *Enum {
	vals := []*EnumVal{{Name: "NONE", Value: 0, UnionType: &Type{BaseType: None, Index: -1}}}
	for i, m := range members {
		vals = append(vals, &EnumVal{
			Name:      m.Name,
			Value:     int64(i + 1),
			UnionType: &Type{BaseType: Obj, Index: s.Index(m), BaseSize: 4},
		})
	}
	e := &Enum{Name: name, Values: vals, IsUnion: true, UnderlyingType: Type{BaseType: UType, Index: -1, BaseSize: 1}}
	e.UnderlyingType.Index = int32(len(s.Enums))
	s.Enums = append(s.Enums, e)
	return e
}
