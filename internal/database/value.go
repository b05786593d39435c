package database

import (
	"fmt"
	"time"
)

// Kind is the semantic type of a bound parameter.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt8
	KindUint8
	KindInt16
	KindUint16
	KindInt32
	KindUint32
	KindInt64
	KindUint64
	KindBool
	KindFloat32
	KindFloat64
	KindChar    // fixed-length text
	KindVarChar // variable-length text
	KindWChar   // wide (UTF-16 on the native side) text
	KindBinary
	KindTimestamp
)

var kindNames = [...]string{
	KindInvalid:   "invalid",
	KindInt8:      "int8",
	KindUint8:     "uint8",
	KindInt16:     "int16",
	KindUint16:    "uint16",
	KindInt32:     "int32",
	KindUint32:    "uint32",
	KindInt64:     "int64",
	KindUint64:    "uint64",
	KindBool:      "bool",
	KindFloat32:   "float32",
	KindFloat64:   "float64",
	KindChar:      "char",
	KindVarChar:   "varchar",
	KindWChar:     "wchar",
	KindBinary:    "binary",
	KindTimestamp: "timestamp",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// NativeType is the pair of ODBC type tags a bind call passes to the driver:
// the C buffer type and the SQL column type.
type NativeType struct {
	CType   int16
	SQLType int16
}

// ODBC type identifiers (sql.h / sqlext.h).
const (
	sqlChar          = 1
	sqlVarChar       = 12
	sqlWChar         = -8
	sqlWVarChar      = -9
	sqlTinyInt       = -6
	sqlSmallInt      = 5
	sqlInteger       = 4
	sqlBigInt        = -5
	sqlBit           = -7
	sqlReal          = 7
	sqlDouble        = 8
	sqlBinary        = -2
	sqlVarBinary     = -3
	sqlTypeTimestamp = 93

	sqlCSTinyInt  = -26
	sqlCUTinyInt  = -28
	sqlCSShort    = -15
	sqlCUShort    = -17
	sqlCSLong     = -16
	sqlCULong     = -18
	sqlCSBigInt   = -25
	sqlCUBigInt   = -27
	sqlCFloat     = 7
	sqlCDouble    = 8
	sqlCBit       = -7
	sqlCChar      = 1
	sqlCWChar     = -8
	sqlCBinary    = -2
	sqlCTimestamp = 93
)

var nativeTypes = map[Kind]NativeType{
	KindInt8:      {sqlCSTinyInt, sqlTinyInt},
	KindUint8:     {sqlCUTinyInt, sqlTinyInt},
	KindInt16:     {sqlCSShort, sqlSmallInt},
	KindUint16:    {sqlCUShort, sqlSmallInt},
	KindInt32:     {sqlCSLong, sqlInteger},
	KindUint32:    {sqlCULong, sqlInteger},
	KindInt64:     {sqlCSBigInt, sqlBigInt},
	KindUint64:    {sqlCUBigInt, sqlBigInt},
	KindBool:      {sqlCBit, sqlBit},
	KindFloat32:   {sqlCFloat, sqlReal},
	KindFloat64:   {sqlCDouble, sqlDouble},
	KindChar:      {sqlCChar, sqlChar},
	KindVarChar:   {sqlCChar, sqlVarChar},
	KindWChar:     {sqlCWChar, sqlWVarChar},
	KindBinary:    {sqlCBinary, sqlVarBinary},
	KindTimestamp: {sqlCTimestamp, sqlTypeTimestamp},
}

// NativeType returns the type tags used when binding a parameter of kind k.
func (k Kind) NativeType() (NativeType, bool) {
	t, ok := nativeTypes[k]
	return t, ok
}

// Value is one typed parameter. The zero Value is invalid.
type Value struct {
	kind Kind
	i    int64
	u    uint64
	f    float64
	s    string
	b    []byte
	t    time.Time
}

func Int8(v int8) Value       { return Value{kind: KindInt8, i: int64(v)} }
func Int16(v int16) Value     { return Value{kind: KindInt16, i: int64(v)} }
func Int32(v int32) Value     { return Value{kind: KindInt32, i: int64(v)} }
func Int64(v int64) Value     { return Value{kind: KindInt64, i: v} }
func Uint8(v uint8) Value     { return Value{kind: KindUint8, u: uint64(v)} }
func Uint16(v uint16) Value   { return Value{kind: KindUint16, u: uint64(v)} }
func Uint32(v uint32) Value   { return Value{kind: KindUint32, u: uint64(v)} }
func Uint64(v uint64) Value   { return Value{kind: KindUint64, u: v} }
func Float32(v float32) Value { return Value{kind: KindFloat32, f: float64(v)} }
func Float64(v float64) Value { return Value{kind: KindFloat64, f: v} }
func Char(v string) Value     { return Value{kind: KindChar, s: v} }
func VarChar(v string) Value  { return Value{kind: KindVarChar, s: v} }
func WChar(v string) Value    { return Value{kind: KindWChar, s: v} }
func Binary(v []byte) Value   { return Value{kind: KindBinary, b: v} }

func Bool(v bool) Value {
	val := Value{kind: KindBool}
	if v {
		val.i = 1
	}
	return val
}

func Timestamp(v time.Time) Value { return Value{kind: KindTimestamp, t: v} }

// Kind returns the semantic type of v.
func (v Value) Kind() Kind { return v.kind }

// Len is the byte length the native side needs for v: the text or blob
// length for variable-length kinds, the fixed width otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindInt8, KindUint8, KindBool:
		return 1
	case KindInt16, KindUint16:
		return 2
	case KindInt32, KindUint32, KindFloat32:
		return 4
	case KindInt64, KindUint64, KindFloat64:
		return 8
	case KindChar, KindVarChar:
		return len(v.s)
	case KindWChar:
		return 2 * len([]rune(v.s))
	case KindBinary:
		return len(v.b)
	case KindTimestamp:
		return 16
	default:
		return 0
	}
}

// Any returns v as the Go value a database/sql driver accepts.
func (v Value) Any() any {
	switch v.kind {
	case KindInt8:
		return int8(v.i)
	case KindInt16:
		return int16(v.i)
	case KindInt32:
		return int32(v.i)
	case KindInt64:
		return v.i
	case KindUint8:
		return uint8(v.u)
	case KindUint16:
		return uint16(v.u)
	case KindUint32:
		return uint32(v.u)
	case KindUint64:
		return v.u
	case KindBool:
		return v.i != 0
	case KindFloat32:
		return float32(v.f)
	case KindFloat64:
		return v.f
	case KindChar, KindVarChar, KindWChar:
		return v.s
	case KindBinary:
		return v.b
	case KindTimestamp:
		return v.t
	default:
		return nil
	}
}

func (v Value) String() string {
	return fmt.Sprintf("%s(%v)", v.kind, v.Any())
}
