package core

import "testing"

func TestEvolution(t *testing.T) {
	entries := []Savings{
		{ID: "c", Amount: dec("50"), Date: NewDate(2024, 3, 1)},
		{ID: "a", Amount: dec("100"), Date: NewDate(2024, 1, 1)},
		{ID: "b", Amount: dec("-30"), Date: NewDate(2024, 2, 1)},
		{ID: "d", Amount: dec("20.5"), Date: NewDate(2024, 3, 1)},
	}
	got := Evolution(entries)
	want := []string{"100", "70", "120", "140.5"}
	if len(got) != len(want) {
		t.Fatalf("len(Evolution()) = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if !got[i].Total.Equal(dec(w)) {
			t.Errorf("Evolution()[%d].Total = %s, want %s", i, got[i].Total, w)
		}
	}
	if !got[0].Date.Equal(NewDate(2024, 1, 1)) {
		t.Errorf("Evolution()[0].Date = %s, want 2024-01-01", got[0].Date)
	}
	if entries[0].ID != "c" {
		t.Error("Evolution() must not reorder its input")
	}
}

func TestNewSavings_Defaults(t *testing.T) {
	s, err := NewSavings("u", SavingsInput{Amount: dec("10")})
	if err != nil {
		t.Fatalf("NewSavings() error: %v", err)
	}
	if s.SourceDescription != DefaultSavingsSource {
		t.Errorf("SourceDescription = %q, want %q", s.SourceDescription, DefaultSavingsSource)
	}
	if s.Date.IsZero() {
		t.Error("Date should default to today")
	}
	if _, err := NewSavings("u", SavingsInput{}); err == nil {
		t.Error("NewSavings() with zero amount should fail")
	}
}

func TestNewAccount(t *testing.T) {
	tests := []struct {
		name    string
		in      AccountInput
		wantErr bool
		check   func(t *testing.T, a Account)
	}{
		{
			name: "default color",
			in:   AccountInput{Name: "Itau", Type: AccountBank},
			check: func(t *testing.T, a Account) {
				if a.Color != DefaultAccountColor {
					t.Errorf("Color = %q, want %q", a.Color, DefaultAccountColor)
				}
			},
		},
		{
			name: "card details only for credit cards",
			in:   AccountInput{Name: "Itau", Type: AccountBank, CardDetails: &CardDetails{HolderName: "X", Last4Digits: "1234"}},
			check: func(t *testing.T, a Account) {
				if a.CardDetails != nil {
					t.Errorf("CardDetails = %+v, want nil", a.CardDetails)
				}
			},
		},
		{
			name: "credit card keeps details",
			in:   AccountInput{Name: "Nubank", Type: AccountCreditCard, Color: "#820AD1", CardDetails: &CardDetails{HolderName: " Ana ", Last4Digits: "9876"}},
			check: func(t *testing.T, a Account) {
				if a.CardDetails == nil || a.CardDetails.HolderName != "Ana" || a.CardDetails.Last4Digits != "9876" {
					t.Errorf("CardDetails = %+v", a.CardDetails)
				}
			},
		},
		{name: "missing name", in: AccountInput{Type: AccountBank}, wantErr: true},
		{name: "bad type", in: AccountInput{Name: "x", Type: "wallet"}, wantErr: true},
		{name: "bad color", in: AccountInput{Name: "x", Type: AccountBank, Color: "red"}, wantErr: true},
		{name: "bad last digits", in: AccountInput{Name: "x", Type: AccountCreditCard, CardDetails: &CardDetails{Last4Digits: "12a4"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAccount("u", tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewAccount() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, a)
			}
		})
	}
}
