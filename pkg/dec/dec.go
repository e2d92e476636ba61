package dec

import (
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"cosmos-core/pkg/errno"
)

// Precision 固定的小数位数
const Precision = 18

var decRegex = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

// Dec 定点十进制数，小数部分固定 18 位，内部指数固定为 -18。零值为 0。
// 唯一的例外是 QuoRem 的余数：需要超过 18 位才能精确表示时保留原指数。
type Dec struct {
	d decimal.Decimal
}

// pin 把指数固定为 -18。调用方保证 d 最多 18 位小数，否则原样保留。
func pin(d decimal.Decimal) Dec {
	if !d.Truncate(Precision).Equal(d) {
		return Dec{d: d}
	}
	return Dec{d: decimal.NewFromBigInt(d.Shift(Precision).BigInt(), -Precision)}
}

// NewDec 整数
func NewDec(i int64) Dec {
	return pin(decimal.NewFromInt(i))
}

// NewDecWithPrec i * 10^-prec，prec 不得超过 18
func NewDecWithPrec(i int64, prec int32) Dec {
	if prec < 0 || prec > Precision {
		panic(errno.Newf(errno.ErrPrecisionOverflow, "prec %d", prec))
	}
	return pin(decimal.New(i, -prec))
}

// FromInt 由整数构造
func FromInt(i *big.Int) Dec {
	return pin(decimal.NewFromBigInt(i, 0))
}

// Parse 解析十进制字符串，例如 "0.025"、"-1.5"。
// 超过 18 位小数返回 ErrPrecisionOverflow，不做舍入。
func Parse(text string) (Dec, error) {
	text = strings.TrimSpace(text)
	if !decRegex.MatchString(text) {
		return Dec{}, errno.Newf(errno.ErrInvalidDecimal, "%q", text)
	}
	if dot := strings.IndexByte(text, '.'); dot >= 0 && len(text)-dot-1 > Precision {
		return Dec{}, errno.Newf(errno.ErrPrecisionOverflow, "%q has %d fractional digits", text, len(text)-dot-1)
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return Dec{}, errno.Wrap(errno.ErrInvalidDecimal, err, text)
	}
	return pin(d), nil
}

// MustParse 仅用于常量和测试
func MustParse(text string) Dec {
	d, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return d
}

// Add 精确加法
func (x Dec) Add(y Dec) Dec {
	return pin(x.d.Add(y.d))
}

// Sub 精确减法
func (x Dec) Sub(y Dec) Dec {
	return pin(x.d.Sub(y.d))
}

// Mul 乘积向零截断到 18 位小数
func (x Dec) Mul(y Dec) Dec {
	return pin(x.d.Mul(y.d).Truncate(Precision))
}

// MulInt 乘以整数，结果精确
func (x Dec) MulInt(i *big.Int) Dec {
	return pin(x.d.Mul(decimal.NewFromBigInt(i, 0)))
}

// QuoRem 商向零截断到 18 位小数，余数满足 x = q*y + r，r 与 x 同号。
// r 是精确值，可能有最多 36 位小数。
func (x Dec) QuoRem(y Dec) (Dec, Dec, error) {
	if y.d.IsZero() {
		return Dec{}, Dec{}, errno.Newf(errno.ErrDivisionByZero, "%s / 0", x)
	}
	q, r := x.d.QuoRem(y.d, Precision)
	return pin(q), pin(r), nil
}

// Quo QuoRem 的商
func (x Dec) Quo(y Dec) (Dec, error) {
	q, _, err := x.QuoRem(y)
	return q, err
}

func (x Dec) Cmp(y Dec) int {
	return x.d.Cmp(y.d)
}

func (x Dec) Equal(y Dec) bool {
	return x.d.Equal(y.d)
}

func (x Dec) IsZero() bool {
	return x.d.IsZero()
}

func (x Dec) IsNegative() bool {
	return x.d.IsNegative()
}

func (x Dec) Neg() Dec {
	return pin(x.d.Neg())
}

// IsInteger 小数部分为 0
func (x Dec) IsInteger() bool {
	return x.d.IsInteger()
}

// TruncateInt 向零取整
func (x Dec) TruncateInt() *big.Int {
	return x.d.Truncate(0).BigInt()
}

// CeilInt 向上取整，手续费 = ceil(gas × price)
func (x Dec) CeilInt() *big.Int {
	return x.d.Ceil().BigInt()
}

// Int 转换为整数，有小数部分时返回 ErrIntegerConversion
func (x Dec) Int() (*big.Int, error) {
	if !x.d.IsInteger() {
		return nil, errno.Newf(errno.ErrIntegerConversion, "%s", x)
	}
	return x.d.BigInt(), nil
}

// String 固定输出 18 位小数，例如 "1.000000000000000000"。
// 超过 18 位的余数按精确值输出，不做舍入。
func (x Dec) String() string {
	if !x.d.Truncate(Precision).Equal(x.d) {
		return x.d.String()
	}
	return x.d.StringFixed(Precision)
}

// MarshalText 实现 encoding.TextMarshaler
func (x Dec) MarshalText() ([]byte, error) {
	return []byte(x.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (x *Dec) UnmarshalText(text []byte) error {
	d, err := Parse(string(text))
	if err != nil {
		return err
	}
	*x = d
	return nil
}
