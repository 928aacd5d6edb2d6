package service

import (
	"errors"
	"fmt"
	"strings"
)

// 价格一律按「分」存整数，不走浮点。
// 手工录入走 ParsePrice（严格，非法直接报错），
// CSV 导入走 lenientPriceCents（宽松，解析不了一律归零）。

var ErrInvalidPrice = errors.New("price format invalid")

// ParsePrice 把十进制价格串解析成分
//
// 接受 "12"、"12.5"、"12.50"，最多两位小数；
// 负数、超过两位小数、带字母的一律返回 ErrInvalidPrice。
func ParsePrice(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("%w: 价格不能为负数: %q", ErrInvalidPrice, s)
	}
	s = strings.TrimPrefix(s, "+")

	whole, frac, err := splitDecimal(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("%w: 最多两位小数: %q", ErrInvalidPrice, s)
	}
	return assembleCents(whole, frac, false), nil
}

// lenientPriceCents 宽松解析：空串、非数字、负数统统归零，
// 第三位小数起四舍五入。导入路径永远不会因为价格报错。
func lenientPriceCents(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") {
		return 0
	}
	s = strings.TrimPrefix(s, "+")

	whole, frac, err := splitDecimal(s)
	if err != nil {
		return 0
	}
	return assembleCents(whole, frac, true)
}

// splitDecimal 拆出整数部分和小数部分，只认纯数字
func splitDecimal(s string) (whole, frac string, err error) {
	whole = s
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" && frac == "" {
		return "", "", errors.New("empty number")
	}
	// 16 位整数再乘 100 已经逼近 int64 上限
	if len(whole) > 16 {
		return "", "", errors.New("number too large")
	}
	for _, part := range []string{whole, frac} {
		for _, c := range part {
			if c < '0' || c > '9' {
				return "", "", errors.New("not a plain decimal")
			}
		}
	}
	return whole, frac, nil
}

// assembleCents 拼出分值；round 开启时第三位小数四舍五入，否则直接截断
func assembleCents(whole, frac string, round bool) int64 {
	var cents int64
	for _, c := range whole {
		cents = cents*10 + int64(c-'0')
	}
	cents *= 100

	if len(frac) > 0 {
		cents += int64(frac[0]-'0') * 10
	}
	if len(frac) > 1 {
		cents += int64(frac[1] - '0')
	}
	if round && len(frac) > 2 && frac[2] >= '5' {
		cents++
	}
	return cents
}

// FormatCents 分转回十进制串，固定两位小数（"1250" -> "12.50"）
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
