package tx

import (
	"strings"

	"cosmos-core/pkg/errno"
)

// SignMode 签名模式
type SignMode int

const (
	SignModeUnspecified SignMode = iota
	// SignModeDirect 对 protobuf SignDoc 签名
	SignModeDirect
	// SignModeLegacyJSON 对按键排序的 amino JSON StdSignDoc 签名
	SignModeLegacyJSON
)

// ParseSignMode 解析配置中的模式名
func ParseSignMode(text string) (SignMode, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "direct":
		return SignModeDirect, nil
	case "legacy-json", "legacy_json", "amino-json", "amino":
		return SignModeLegacyJSON, nil
	default:
		return SignModeUnspecified, errno.Newf(errno.ErrInvalidSignMode, "%q", text)
	}
}

func (m SignMode) String() string {
	switch m {
	case SignModeDirect:
		return "direct"
	case SignModeLegacyJSON:
		return "legacy-json"
	default:
		return "unspecified"
	}
}

// protoValue cosmos.tx.signing.v1beta1.SignMode 枚举值
func (m SignMode) protoValue() uint64 {
	switch m {
	case SignModeDirect:
		return 1
	case SignModeLegacyJSON:
		return 127
	default:
		return 0
	}
}

func (m SignMode) valid() bool {
	return m == SignModeDirect || m == SignModeLegacyJSON
}
