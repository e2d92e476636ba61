// Package pbwire 在 protowire 之上提供 proto3 的手工编解码。
// 调用方按字段号递增顺序追加字段，得到与官方实现一致的确定性字节。
package pbwire

import (
	"google.golang.org/protobuf/encoding/protowire"

	"cosmos-core/pkg/errno"
)

// Number 字段号
type Number = protowire.Number

// AppendString 空串不输出
func AppendString(b []byte, num Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// AppendBytes 空值不输出
func AppendBytes(b []byte, num Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// AppendRepeatedBytes repeated 元素总是输出，空元素也占位
func AppendRepeatedBytes(b []byte, num Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// AppendUvarint 0 不输出
func AppendUvarint(b []byte, num Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// AppendMessage 嵌套消息总是输出
func AppendMessage(b []byte, num Number, msg []byte) []byte {
	return AppendRepeatedBytes(b, num, msg)
}

// Field 解码出的一个字段。BytesType 字段的 Bytes 指向原始数据，Varint 为 varint 字段的值。
type Field struct {
	Num    Number
	Type   protowire.Type
	Bytes  []byte
	Varint uint64
}

// IsBytes 长度前缀字段
func (f Field) IsBytes() bool {
	return f.Type == protowire.BytesType
}

// Walk 依次回调每个字段，fixed32/fixed64/group 字段跳过内容
func Walk(data []byte, fn func(Field) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return errno.Wrap(errno.ErrMalformedEncoding, protowire.ParseError(n), "tag")
		}
		data = data[n:]

		f := Field{Num: num, Type: typ}
		switch typ {
		case protowire.BytesType:
			f.Bytes, n = protowire.ConsumeBytes(data)
		case protowire.VarintType:
			f.Varint, n = protowire.ConsumeVarint(data)
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
		}
		if n < 0 {
			return errno.Wrapf(errno.ErrMalformedEncoding, protowire.ParseError(n), "field %d", num)
		}
		data = data[n:]

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}
