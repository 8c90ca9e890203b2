package utils

import (
	"fmt"
	"strings"
)

func TruncateString(str string, num int) string {
	r := []rune(str)
	if len(r) <= num {
		return str
	}
	if num <= 3 {
		return string(r[:num])
	}
	return string(r[0:num-3]) + "..."
}

func AddCommas(s string) string {
	if len(s) == 0 {
		return s
	}
	parts := strings.Split(s, ".")
	integerPart := parts[0]
	sign := ""
	if strings.HasPrefix(integerPart, "-") {
		sign = "-"
		integerPart = integerPart[1:]
	}

	n := len(integerPart)
	if n <= 3 {
		return s
	}

	var result strings.Builder
	result.WriteString(sign)
	remainder := n % 3
	if remainder > 0 {
		result.WriteString(integerPart[:remainder])
		result.WriteString(",")
	}
	for i := remainder; i < n; i += 3 {
		if i > remainder {
			result.WriteString(",")
		}
		result.WriteString(integerPart[i : i+3])
	}
	if len(parts) > 1 {
		result.WriteString(".")
		result.WriteString(parts[1])
	}
	return result.String()
}

func FormatFloat(f float64, decimals int) string {
	return AddCommas(fmt.Sprintf("%.*f", decimals, f))
}

// FormatUSD renders a fiat value with two decimals and thousands separators.
func FormatUSD(f float64) string {
	return "$" + FormatFloat(f, 2)
}

// Percent returns part as a share of total in [0, 100]; zero totals yield 0.
func Percent(part, total float64) float64 {
	if total <= 0 || part <= 0 {
		return 0
	}
	p := part / total * 100
	if p > 100 {
		return 100
	}
	return p
}
