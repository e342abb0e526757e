package domain

import "testing"

func TestMaskCardNumber(t *testing.T) {
	tests := []struct {
		name   string
		number string
		want   string
	}{
		{
			name:   "sixteen digit number",
			number: "4000123412345678",
			want:   "**** **** **** 5678",
		},
		{
			name:   "number with spaces",
			number: "4000 1234 1234 5678",
			want:   "**** **** **** 5678",
		},
		{
			name:   "short value never leaks",
			number: "123",
			want:   "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskCardNumber(tt.number); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParseCardStatus(t *testing.T) {
	status, err := ParseCardStatus(" blocked ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != CardStatusBlocked {
		t.Fatalf("expected BLOCKED, got %s", status)
	}

	if _, err := ParseCardStatus("FROZEN"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestParseCardOperation(t *testing.T) {
	op, err := ParseCardOperation("deep_delete")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if op != OperationDeepDelete {
		t.Fatalf("expected DEEP_DELETE, got %s", op)
	}

	if _, err := ParseCardOperation("FREEZE"); err == nil {
		t.Fatal("expected error for unknown operation")
	}
}
