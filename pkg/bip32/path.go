package bip32

import (
	"fmt"
	"strconv"
	"strings"

	"cosmos-core/pkg/errno"
)

// PathSegment 路径中的一段。Index 不含硬化位。
type PathSegment struct {
	Index    uint32
	Hardened bool
}

// ChildIndex 返回带硬化位的 BIP-32 子索引
func (s PathSegment) ChildIndex() uint32 {
	if s.Hardened {
		return s.Index + HardenedKeyStart
	}
	return s.Index
}

func (s PathSegment) String() string {
	if s.Hardened {
		return strconv.FormatUint(uint64(s.Index), 10) + "'"
	}
	return strconv.FormatUint(uint64(s.Index), 10)
}

// DerivationPath 从主密钥出发的派生路径
type DerivationPath []PathSegment

// DefaultCosmosPath m/44'/118'/0'/0/0
var DefaultCosmosPath = CosmosHDPath(0, 0)

// CosmosHDPath 构造 m/44'/118'/account'/0/index
func CosmosHDPath(account, index uint32) DerivationPath {
	return DerivationPath{
		{Index: 44, Hardened: true},
		{Index: 118, Hardened: true},
		{Index: account, Hardened: true},
		{Index: 0},
		{Index: index},
	}
}

// ParsePath 解析形如 m/44'/118'/0'/0/0 的路径。
// 硬化标记支持 ' h H，前缀 m/ 可省略；单独的 "m" 表示主密钥本身。
func ParsePath(text string) (DerivationPath, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errno.New(errno.ErrInvalidPath, "empty path")
	}

	elems := strings.Split(text, "/")
	if elems[0] == "m" || elems[0] == "M" {
		elems = elems[1:]
	}

	path := make(DerivationPath, 0, len(elems))
	for i, elem := range elems {
		seg, err := parseSegment(elem)
		if err != nil {
			return nil, errno.Newf(errno.ErrInvalidPath, "segment %d %q: %v", i+1, elem, err)
		}
		path = append(path, seg)
	}
	return path, nil
}

func parseSegment(elem string) (PathSegment, error) {
	var seg PathSegment
	if n := len(elem); n > 0 {
		switch elem[n-1] {
		case '\'', 'h', 'H':
			seg.Hardened = true
			elem = elem[:n-1]
		}
	}
	if elem == "" {
		return seg, fmt.Errorf("missing index")
	}
	// 只接受十进制数字，拒绝 "+1"、"0x10" 之类
	for _, c := range elem {
		if c < '0' || c > '9' {
			return seg, fmt.Errorf("not a decimal index")
		}
	}
	v, err := strconv.ParseUint(elem, 10, 32)
	if err != nil || v >= uint64(HardenedKeyStart) {
		return seg, fmt.Errorf("index must be in range [0, %d]", HardenedKeyStart-1)
	}
	seg.Index = uint32(v)
	return seg, nil
}

// String 返回规范形式，硬化段使用 '
func (p DerivationPath) String() string {
	var b strings.Builder
	b.WriteString("m")
	for _, seg := range p {
		b.WriteByte('/')
		b.WriteString(seg.String())
	}
	return b.String()
}

// Equal 逐段比较
func (p DerivationPath) Equal(other DerivationPath) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}
