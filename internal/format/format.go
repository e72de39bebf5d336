// Package format renders amounts and dates the way the Korean site shows them.
package format

import (
	"fmt"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Number groups digits with the Korean locale separator, e.g. 1,000.
func Number(n int64) string {
	return message.NewPrinter(language.Korean).Sprintf("%d", n)
}

// Currency renders an amount in won, e.g. 10000 -> "10,000원".
func Currency(amount int64) string {
	return Number(amount) + "원"
}

// AmountLabel renders an amount in units of 10,000 won, e.g. 50000 -> "5만원".
func AmountLabel(amount int64) string {
	return strconv.FormatFloat(float64(amount)/10_000, 'f', -1, 64) + "만원"
}

// Date renders t as "YYYY년 M월 D일".
func Date(t time.Time) string {
	return fmt.Sprintf("%d년 %d월 %d일", t.Year(), int(t.Month()), t.Day())
}
