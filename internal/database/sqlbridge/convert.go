package sqlbridge

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/koustreak/dbpool/internal/database"
)

// Layouts tried, in order, when a text column is read as a timestamp.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

type convertError struct {
	state string
	msg   string
}

func (e *convertError) Error() string { return e.msg }

func invalidCast(v, dst any) error {
	return &convertError{
		state: database.StateInvalidCast,
		msg:   fmt.Sprintf("cannot read %T as %T", v, dst),
	}
}

func outOfRange(v, dst any) error {
	return &convertError{
		state: database.StateOutOfRange,
		msg:   fmt.Sprintf("value %v does not fit %T", v, dst),
	}
}

// asBytes returns the byte form of a scanned value: raw for text and
// binary columns, the canonical text form for everything else. NULL is
// empty.
func asBytes(v any) ([]byte, bool) {
	switch v := v.(type) {
	case nil:
		return nil, true
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	case int64:
		return strconv.AppendInt(nil, v, 10), true
	case float64:
		return strconv.AppendFloat(nil, v, 'g', -1, 64), true
	case bool:
		return strconv.AppendBool(nil, v), true
	case time.Time:
		return v.AppendFormat(nil, time.RFC3339Nano), true
	case fmt.Stringer:
		return []byte(v.String()), true
	default:
		return nil, false
	}
}

func toInt64(v any) (int64, bool) {
	switch v := v.(type) {
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case []byte:
		return toInt64(string(v))
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func toUint64(v any) (uint64, bool) {
	switch v := v.(type) {
	case int64:
		return uint64(v), v >= 0
	case []byte:
		return toUint64(string(v))
	case string:
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	default:
		n, ok := toInt64(v)
		return uint64(n), ok && n >= 0
	}
}

func toFloat64(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case []byte:
		return toFloat64(string(v))
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toBool(v any) (bool, bool) {
	switch v := v.(type) {
	case bool:
		return v, true
	case int64:
		return v != 0, true
	case []byte:
		return toBool(string(v))
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return b, err == nil
	default:
		return false, false
	}
}

func toTime(v any) (time.Time, bool) {
	switch v := v.(type) {
	case time.Time:
		return v, true
	case []byte:
		return toTime(string(v))
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// assign stores v in the fixed-size destination dst. NULL leaves dst at
// its zero value.
func assign(dst, v any) error {
	if v == nil {
		return assignZero(dst)
	}

	switch d := dst.(type) {
	case *int8:
		return assignSigned(d, v, math.MinInt8, math.MaxInt8)
	case *int16:
		return assignSigned(d, v, math.MinInt16, math.MaxInt16)
	case *int32:
		return assignSigned(d, v, math.MinInt32, math.MaxInt32)
	case *int64:
		return assignSigned(d, v, math.MinInt64, math.MaxInt64)
	case *uint8:
		return assignUnsigned(d, v, math.MaxUint8)
	case *uint16:
		return assignUnsigned(d, v, math.MaxUint16)
	case *uint32:
		return assignUnsigned(d, v, math.MaxUint32)
	case *uint64:
		return assignUnsigned(d, v, math.MaxUint64)
	case *bool:
		b, ok := toBool(v)
		if !ok {
			return invalidCast(v, dst)
		}
		*d = b
	case *float32:
		f, ok := toFloat64(v)
		if !ok {
			return invalidCast(v, dst)
		}
		if math.Abs(f) > math.MaxFloat32 && !math.IsInf(f, 0) {
			return outOfRange(v, dst)
		}
		*d = float32(f)
	case *float64:
		f, ok := toFloat64(v)
		if !ok {
			return invalidCast(v, dst)
		}
		*d = f
	case *time.Time:
		t, ok := toTime(v)
		if !ok {
			return invalidCast(v, dst)
		}
		*d = t
	default:
		return invalidCast(v, dst)
	}
	return nil
}

type signed interface{ ~int8 | ~int16 | ~int32 | ~int64 }
type unsigned interface{ ~uint8 | ~uint16 | ~uint32 | ~uint64 }

func assignSigned[T signed](dst *T, v any, lo, hi int64) error {
	n, ok := toInt64(v)
	if !ok {
		if _, isNum := toFloat64(v); isNum {
			return outOfRange(v, dst)
		}
		return invalidCast(v, dst)
	}
	if n < lo || n > hi {
		return outOfRange(v, dst)
	}
	*dst = T(n)
	return nil
}

func assignUnsigned[T unsigned](dst *T, v any, hi uint64) error {
	n, ok := toUint64(v)
	if !ok {
		if _, isNum := toFloat64(v); isNum {
			return outOfRange(v, dst)
		}
		return invalidCast(v, dst)
	}
	if n > hi {
		return outOfRange(v, dst)
	}
	*dst = T(n)
	return nil
}

func assignZero(dst any) error {
	switch d := dst.(type) {
	case *int8:
		*d = 0
	case *int16:
		*d = 0
	case *int32:
		*d = 0
	case *int64:
		*d = 0
	case *uint8:
		*d = 0
	case *uint16:
		*d = 0
	case *uint32:
		*d = 0
	case *uint64:
		*d = 0
	case *bool:
		*d = false
	case *float32:
		*d = 0
	case *float64:
		*d = 0
	case *time.Time:
		*d = time.Time{}
	default:
		return invalidCast(nil, dst)
	}
	return nil
}
