// Package validation holds the donor-field and amount checks used by the
// donation flow. Every check is pure and returns a Result instead of an error
// so callers can show the message next to the field.
package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"donation-flow/internal/format"
	"donation-flow/internal/model"
)

// Result is the outcome of a single field check.
type Result struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

var ok = Result{Valid: true}

func invalid(msg string) Result {
	return Result{Valid: false, Message: msg}
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateName requires at least two characters after trimming.
func ValidateName(name string) Result {
	if utf8.RuneCountInString(strings.TrimSpace(name)) < 2 {
		return invalid("이름을 입력해주세요")
	}
	return ok
}

// ValidateEmail requires a local@domain.tld shape.
func ValidateEmail(email string) Result {
	if !emailPattern.MatchString(email) {
		return invalid("올바른 이메일 주소를 입력해주세요")
	}
	return ok
}

// ValidatePhone requires 10 or 11 digits once separators are removed.
func ValidatePhone(phone string) Result {
	n := len(Digits(phone))
	if n < 10 || n > 11 {
		return invalid("연락처를 입력해주세요")
	}
	return ok
}

// ValidateAmount checks the amount against the floor and the type ceiling.
func ValidateAmount(amount int64, t model.DonationType) Result {
	switch {
	case amount == 0:
		return invalid("후원 금액을 선택해주세요")
	case amount < model.MinAmount:
		return invalid("최소 " + format.Number(model.MinAmount) + "원 이상 입력해주세요")
	case amount > t.MaxAmount():
		return invalid("최대 " + format.Number(t.MaxAmount()) + "원까지 가능합니다")
	}
	return ok
}

// Digits strips everything except ASCII digits.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// FormatPhoneNumber re-hyphenates the digits of s. Seoul numbers (02) use
// 2-3-4 or 2-4-4 grouping, everything else 3-4-4. Partial input is grouped as
// far as it goes and digits past the last group are dropped.
func FormatPhoneNumber(s string) string {
	d := Digits(s)
	n := len(d)

	if strings.HasPrefix(d, "02") {
		switch {
		case n <= 2:
			return d
		case n <= 5:
			return d[:2] + "-" + d[2:]
		case n <= 9:
			return d[:2] + "-" + d[2:5] + "-" + d[5:]
		default:
			return d[:2] + "-" + d[2:6] + "-" + d[6:10]
		}
	}

	switch {
	case n <= 3:
		return d
	case n <= 7:
		return d[:3] + "-" + d[3:]
	case n <= 11:
		return d[:3] + "-" + d[3:7] + "-" + d[7:]
	default:
		return d[:3] + "-" + d[3:7] + "-" + d[7:11]
	}
}

// DonorErrors runs all donor checks and returns the failing field messages.
func DonorErrors(donor model.DonorInfo) map[model.DonorField]string {
	errs := make(map[model.DonorField]string)
	if r := ValidateName(donor.Name); !r.Valid {
		errs[model.DonorName] = r.Message
	}
	if r := ValidateEmail(donor.Email); !r.Valid {
		errs[model.DonorEmail] = r.Message
	}
	if r := ValidatePhone(donor.Phone); !r.Valid {
		errs[model.DonorPhone] = r.Message
	}
	return errs
}
