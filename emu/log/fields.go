package log

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

type FieldType uint8

const (
	FieldTypeUnknown FieldType = iota
	FieldTypeBool
	FieldTypeString
	FieldTypeHex8
	FieldTypeHex16
	FieldTypeHex32
	FieldTypeInt
	FieldTypeUint
	FieldTypeError
	FieldTypeDuration
	FieldTypeStringer
	FieldTypeBlob
)

// blobMax is the number of bytes of a blob field shown in logs. Sectors
// and raw track excerpts are cut there.
const blobMax = 32

type ZField struct {
	Type FieldType
	Key  string

	String    string
	Integer   uint64
	Duration  time.Duration
	Error     error
	Interface any
	Boolean   bool
	Blob      []byte
}

// hex widths, in digits
var hexDigits = [...]int{FieldTypeHex8: 2, FieldTypeHex16: 4, FieldTypeHex32: 8}

func appendHex(dst []byte, v uint64, digits int) []byte {
	var tmp [16]byte
	s := strconv.AppendUint(tmp[:0], v, 16)
	for range digits - len(s) {
		dst = append(dst, '0')
	}
	return append(dst, s...)
}

// AppendValue appends the textual form of the field value to dst.
func (f *ZField) AppendValue(dst []byte) []byte {
	switch f.Type {
	case FieldTypeBool:
		return strconv.AppendBool(dst, f.Boolean)
	case FieldTypeString:
		return append(dst, f.String...)
	case FieldTypeUint:
		return strconv.AppendUint(dst, f.Integer, 10)
	case FieldTypeInt:
		return strconv.AppendInt(dst, int64(f.Integer), 10)
	case FieldTypeHex8:
		return appendHex(dst, f.Integer&0xff, hexDigits[f.Type])
	case FieldTypeHex16:
		return appendHex(dst, f.Integer&0xffff, hexDigits[f.Type])
	case FieldTypeHex32:
		return appendHex(dst, f.Integer&0xffffffff, hexDigits[f.Type])
	case FieldTypeError:
		if f.Error == nil {
			return append(dst, "<nil>"...)
		}
		return append(dst, f.Error.Error()...)
	case FieldTypeDuration:
		return append(dst, f.Duration.String()...)
	case FieldTypeStringer:
		return append(dst, f.Interface.(fmt.Stringer).String()...)
	case FieldTypeBlob:
		blob := f.Blob
		if len(blob) > blobMax {
			blob = blob[:blobMax]
		}
		dst = hex.AppendEncode(dst, blob)
		if len(f.Blob) > blobMax {
			dst = append(dst, "..("...)
			dst = strconv.AppendInt(dst, int64(len(f.Blob)), 10)
			dst = append(dst, " bytes)"...)
		}
		return dst
	}
	return dst
}

func (f *ZField) Value() string {
	var buf [32]byte
	return string(f.AppendValue(buf[:0]))
}
