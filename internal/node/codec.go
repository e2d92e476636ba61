package node

import (
	"fmt"
)

// rawMessage 已经编码好的 protobuf 字节。请求由 pbwire 手工编码，
// 所以 gRPC 层只需要透传字节，不依赖生成的 pb 代码。
type rawMessage struct {
	data []byte
}

// rawCodec 透传 rawMessage。名字用 "proto" 以保持 content-type 为 application/grpc+proto。
type rawCodec struct{}

func (rawCodec) Marshal(v any) ([]byte, error) {
	m, ok := v.(*rawMessage)
	if !ok {
		return nil, fmt.Errorf("rawCodec: unexpected type %T", v)
	}
	return m.data, nil
}

func (rawCodec) Unmarshal(data []byte, v any) error {
	m, ok := v.(*rawMessage)
	if !ok {
		return fmt.Errorf("rawCodec: unexpected type %T", v)
	}
	m.data = append(m.data[:0], data...)
	return nil
}

func (rawCodec) Name() string {
	return "proto"
}
