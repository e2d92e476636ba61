package coin

import (
	"sort"
	"strings"

	"cosmos-core/pkg/errno"
)

// Coins 按 denom 升序排列、denom 不重复、不含零值的集合
type Coins []Coin

// NewCoins 排序并合并，丢弃零值；denom 重复时报错
func NewCoins(coins ...Coin) (Coins, error) {
	out := make(Coins, 0, len(coins))
	for _, c := range coins {
		if err := ValidateDenom(c.Denom); err != nil {
			return nil, err
		}
		if c.IsZero() {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Denom < out[j].Denom })
	for i := 1; i < len(out); i++ {
		if out[i].Denom == out[i-1].Denom {
			return nil, errno.Newf(errno.ErrInvalidCoin, "duplicate denom %q", out[i].Denom)
		}
	}
	return out, nil
}

// ParseCoins 解析 "1uatom,2stake"，空串得到空集合
func ParseCoins(text string) (Coins, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Coins{}, nil
	}
	parts := strings.Split(text, ",")
	coins := make([]Coin, 0, len(parts))
	for _, p := range parts {
		c, err := ParseCoin(p)
		if err != nil {
			return nil, err
		}
		coins = append(coins, c)
	}
	return NewCoins(coins...)
}

// Validate 检查排序、去重和非零
func (cs Coins) Validate() error {
	for i, c := range cs {
		if err := ValidateDenom(c.Denom); err != nil {
			return err
		}
		if c.IsZero() {
			return errno.Newf(errno.ErrInvalidCoin, "zero amount for %q", c.Denom)
		}
		if i > 0 && cs[i-1].Denom >= c.Denom {
			return errno.Newf(errno.ErrInvalidCoin, "denoms not sorted: %q, %q", cs[i-1].Denom, c.Denom)
		}
	}
	return nil
}

func (cs Coins) IsZero() bool {
	return len(cs) == 0
}

// AmountOf 返回指定 denom 的数量，不存在时为 0
func (cs Coins) AmountOf(denom string) Coin {
	for _, c := range cs {
		if c.Denom == denom {
			return c
		}
	}
	return Coin{Denom: denom}
}

// Add 按 denom 合并相加
func (cs Coins) Add(other Coins) (Coins, error) {
	sum := make(map[string]Coin, len(cs)+len(other))
	for _, c := range append(append(Coins{}, cs...), other...) {
		prev, ok := sum[c.Denom]
		if !ok {
			sum[c.Denom] = c
			continue
		}
		added, err := prev.Add(c)
		if err != nil {
			return nil, err
		}
		sum[c.Denom] = added
	}
	out := make([]Coin, 0, len(sum))
	for _, c := range sum {
		out = append(out, c)
	}
	return NewCoins(out...)
}

// Sub 逐 denom 相减，任一 denom 不足时返回 ErrUnderflow
func (cs Coins) Sub(other Coins) (Coins, error) {
	out := append([]Coin{}, cs...)
	for _, o := range other {
		found := false
		for i := range out {
			if out[i].Denom != o.Denom {
				continue
			}
			diff, err := out[i].Sub(o)
			if err != nil {
				return nil, err
			}
			out[i] = diff
			found = true
			break
		}
		if !found && !o.IsZero() {
			return nil, errno.Newf(errno.ErrUnderflow, "0%s - %s", o.Denom, o)
		}
	}
	return NewCoins(out...)
}

// IsEqual 逐项比较
func (cs Coins) IsEqual(other Coins) bool {
	if len(cs) != len(other) {
		return false
	}
	for i := range cs {
		if !cs[i].IsEqual(other[i]) {
			return false
		}
	}
	return true
}

// String 返回 "1uatom,2stake"
func (cs Coins) String() string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}
