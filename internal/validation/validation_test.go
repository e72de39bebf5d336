package validation

import (
	"testing"

	"donation-flow/internal/model"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"empty", "", false},
		{"spaces only", "   ", false},
		{"single hangul", "김", false},
		{"two hangul", "김철", true},
		{"padded", "  Kim  ", true},
		{"padded single", " K ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateName(tt.input)
			if got.Valid != tt.valid {
				t.Errorf("ValidateName(%q).Valid = %v, want %v", tt.input, got.Valid, tt.valid)
			}
			if !got.Valid && got.Message == "" {
				t.Error("invalid result should carry a message")
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"minji@example.com", true},
		{"a@b.co", true},
		{"", false},
		{"minji@example", false},
		{"minji.example.com", false},
		{"min ji@example.com", false},
		{"a@@b.com", false},
		{"a@b@c.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ValidateEmail(tt.input); got.Valid != tt.valid {
				t.Errorf("ValidateEmail(%q).Valid = %v, want %v", tt.input, got.Valid, tt.valid)
			}
		})
	}
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"010-123-456", false},
		{"010-1234-567", true},
		{"01012345678", true},
		{"010-1234-5678", true},
		{"02-123-4567", false},
		{"02-1234-5678", true},
		{"031-123-4567", true},
		{"010123456789", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ValidatePhone(tt.input); got.Valid != tt.valid {
				t.Errorf("ValidatePhone(%q).Valid = %v, want %v", tt.input, got.Valid, tt.valid)
			}
		})
	}
}

func TestFormatPhoneNumber(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"01012345678", "010-1234-5678"},
		{"0101234567", "010-1234-567"},
		{"0212345678", "02-1234-5678"},
		{"021234567", "02-123-4567"},
		{"02", "02"},
		{"0212", "02-12"},
		{"010", "010"},
		{"0101234", "010-1234"},
		{"010123456789", "010-1234-5678"},
		{"02123456789", "02-1234-5678"},
		{"010 1234 5678", "010-1234-5678"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := FormatPhoneNumber(tt.input); got != tt.want {
				t.Errorf("FormatPhoneNumber(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatPhoneNumberIdempotent(t *testing.T) {
	inputs := []string{"01012345678", "0212345678", "021234567", "0311234567", "0101234", "02123"}
	for _, in := range inputs {
		once := FormatPhoneNumber(in)
		twice := FormatPhoneNumber(once)
		if once != twice {
			t.Errorf("FormatPhoneNumber not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		typ    model.DonationType
		valid  bool
		msg    string
	}{
		{"unset", 0, model.DonationMonthly, false, "후원 금액을 선택해주세요"},
		{"below floor", 999, model.DonationMonthly, false, "최소 1,000원 이상 입력해주세요"},
		{"floor", 1000, model.DonationMonthly, true, ""},
		{"monthly ceiling", 10_000_000, model.DonationMonthly, true, ""},
		{"over monthly ceiling", 10_000_001, model.DonationMonthly, false, "최대 10,000,000원까지 가능합니다"},
		{"onetime above monthly ceiling", 50_000_000, model.DonationOneTime, true, ""},
		{"over onetime ceiling", 100_000_001, model.DonationOneTime, false, "최대 100,000,000원까지 가능합니다"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateAmount(tt.amount, tt.typ)
			if got.Valid != tt.valid {
				t.Errorf("Valid = %v, want %v", got.Valid, tt.valid)
			}
			if got.Message != tt.msg {
				t.Errorf("Message = %q, want %q", got.Message, tt.msg)
			}
		})
	}
}

func TestDonorErrors(t *testing.T) {
	errs := DonorErrors(model.DonorInfo{Name: "김민지", Email: "bad", Phone: "010-1234-5678"})
	if len(errs) != 1 {
		t.Fatalf("len(errs) = %d, want 1: %v", len(errs), errs)
	}
	if _, ok := errs[model.DonorEmail]; !ok {
		t.Error("expected email error")
	}
}
