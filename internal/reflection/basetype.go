package reflection

// BaseType is the storage kind of a field or vector element, numbered as in
// reflection.fbs.
type BaseType int8

const (
	None BaseType = iota
	UType
	Bool
	Byte
	UByte
	Short
	UShort
	Int
	UInt
	Long
	ULong
	Float
	Double
	String
	Vector
	Obj
	Union
	Array
	Vector64
	MaxBaseType
)

var baseTypeNames = [...]string{
	"none", "utype", "bool", "byte", "ubyte", "short", "ushort", "int",
	"uint", "long", "ulong", "float", "double", "string", "vector", "obj",
	"union", "array", "vector64",
}

var baseTypeSizes = [...]int{
	0, 1, 1, 1, 1, 2, 2, 4, 4, 8, 8, 4, 8, 4, 4, 4, 4, 0, 8,
}

func (b BaseType) String() string {
	if b < 0 || b >= MaxBaseType {
		return "unknown"
	}
	return baseTypeNames[b]
}

// Size is the inline size in bytes: the value width for scalars and the
// offset width for strings, vectors, tables and unions. Structs are sized by
// their Object.
func (b BaseType) Size() int {
	if b < 0 || b >= MaxBaseType {
		return 0
	}
	return baseTypeSizes[b]
}

func (b BaseType) IsScalar() bool   { return b >= UType && b <= Double }
func (b BaseType) IsInteger() bool  { return b >= UType && b <= ULong }
func (b BaseType) IsFloat() bool    { return b == Float || b == Double }
func (b BaseType) IsUnsigned() bool {
	switch b {
	case UType, Bool, UByte, UShort, UInt, ULong:
		return true
	}
	return false
}

// IsOffset reports whether values of this type are stored as a uoffset to an
// out-of-line object.
func (b BaseType) IsOffset() bool {
	return b == String || b == Vector || b == Union || b == Obj
}
