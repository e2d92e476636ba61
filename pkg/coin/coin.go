package coin

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"cosmos-core/pkg/errno"
)

var (
	denomRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9/:._-]{2,127}$`)
	coinRegex  = regexp.MustCompile(`^([0-9]+)\s*([a-zA-Z][a-zA-Z0-9/:._-]{2,127})$`)
)

// ValidateDenom 检查 denom 格式
func ValidateDenom(denom string) error {
	if !denomRegex.MatchString(denom) {
		return errno.Newf(errno.ErrInvalidDenom, "%q", denom)
	}
	return nil
}

// Coin 非负整数数量 + denom。值类型，运算返回新值。
type Coin struct {
	Denom  string
	amount *big.Int
}

// NewCoin 构造 Coin，amount 会被复制
func NewCoin(denom string, amount *big.Int) (Coin, error) {
	if err := ValidateDenom(denom); err != nil {
		return Coin{}, err
	}
	if amount == nil {
		amount = new(big.Int)
	}
	if amount.Sign() < 0 {
		return Coin{}, errno.Newf(errno.ErrNegativeAmount, "%s%s", amount, denom)
	}
	return Coin{Denom: denom, amount: new(big.Int).Set(amount)}, nil
}

// NewInt64Coin 测试和常量场景使用，非法输入直接 panic
func NewInt64Coin(denom string, amount int64) Coin {
	c, err := NewCoin(denom, big.NewInt(amount))
	if err != nil {
		panic(err)
	}
	return c
}

// ParseCoin 解析 "100uatom"
func ParseCoin(text string) (Coin, error) {
	m := coinRegex.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return Coin{}, errno.Newf(errno.ErrInvalidCoin, "%q", text)
	}
	amount, ok := new(big.Int).SetString(m[1], 10)
	if !ok {
		return Coin{}, errno.Newf(errno.ErrInvalidCoin, "%q", text)
	}
	return NewCoin(m[2], amount)
}

// Amount 返回数量的副本
func (c Coin) Amount() *big.Int {
	if c.amount == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(c.amount)
}

// AmountString 十进制数量，无前导零
func (c Coin) AmountString() string {
	if c.amount == nil {
		return "0"
	}
	return c.amount.String()
}

func (c Coin) IsZero() bool {
	return c.amount == nil || c.amount.Sign() == 0
}

// String 返回 amount‖denom，例如 "100uatom"
func (c Coin) String() string {
	return c.AmountString() + c.Denom
}

// Add 相同 denom 相加
func (c Coin) Add(other Coin) (Coin, error) {
	if c.Denom != other.Denom {
		return Coin{}, mismatch(c, other)
	}
	return Coin{Denom: c.Denom, amount: new(big.Int).Add(c.Amount(), other.Amount())}, nil
}

// Sub 相同 denom 相减，结果为负时返回 ErrUnderflow
func (c Coin) Sub(other Coin) (Coin, error) {
	if c.Denom != other.Denom {
		return Coin{}, mismatch(c, other)
	}
	diff := new(big.Int).Sub(c.Amount(), other.Amount())
	if diff.Sign() < 0 {
		return Coin{}, errno.Newf(errno.ErrUnderflow, "%s - %s", c, other)
	}
	return Coin{Denom: c.Denom, amount: diff}, nil
}

// Cmp 比较数量，denom 不同时返回错误
func (c Coin) Cmp(other Coin) (int, error) {
	if c.Denom != other.Denom {
		return 0, mismatch(c, other)
	}
	return c.Amount().Cmp(other.Amount()), nil
}

// IsEqual denom 和数量都相同
func (c Coin) IsEqual(other Coin) bool {
	return c.Denom == other.Denom && c.Amount().Cmp(other.Amount()) == 0
}

func mismatch(a, b Coin) error {
	return errno.Newf(errno.ErrDenomMismatch, "%q vs %q", a.Denom, b.Denom)
}

// GoString 便于测试失败时阅读
func (c Coin) GoString() string {
	return fmt.Sprintf("coin.Coin{%s}", c)
}
