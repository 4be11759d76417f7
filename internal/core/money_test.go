package core

import (
	"math"
	"testing"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"10,50", 1050, true},
		{"0.01", 1, true},
		{" 2.50 ", 250, true},
		{"0", 0, true},
		{"-1", -100, true},
		{"0.125", 12, true}, // half-even
		{"0.135", 14, true}, // half-even
		{"0.1251", 13, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1,234.50", 0, false},
		{"", 0, false},
		{"   ", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %d", tc.in, got.Cents)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:      "0.00",
		5:      "0.05",
		1050:   "10.50",
		123456: "1234.56",
		-250:   "-2.50",
	}
	for cents, want := range cases {
		if got := Cents(cents).String(); got != want {
			t.Fatalf("%d expected %q, got %q", cents, want, got)
		}
	}
}

func TestMoneySumIsExact(t *testing.T) {
	total := Sum(MustParseMoney("10.10"), MustParseMoney("20.20"), MustParseMoney("5.05"))
	if total.String() != "35.35" {
		t.Fatalf("expected 35.35, got %s", total)
	}
}

func TestMoneyDivRound(t *testing.T) {
	cases := []struct {
		cents int64
		n     int64
		want  int64
	}{
		{1000, 4, 250},
		{1000, 3, 333},
		{1000, 0, 1000},
		{5, 2, 2},  // 2.5 -> 2
		{15, 2, 8}, // 7.5 -> 8
		{-1000, 3, -333},
	}
	for _, tc := range cases {
		if got := Cents(tc.cents).DivRound(tc.n); got.Cents != tc.want {
			t.Fatalf("%d/%d expected %d, got %d", tc.cents, tc.n, tc.want, got.Cents)
		}
	}
}

func TestMoneyText(t *testing.T) {
	var m Money
	if err := m.UnmarshalText([]byte("7,25")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := m.MarshalText()
	if string(b) != "7.25" {
		t.Fatalf("expected 7.25, got %s", b)
	}
	if err := m.UnmarshalText([]byte("x")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFormatMoney(t *testing.T) {
	cases := []struct {
		cents    int64
		currency string
		locale   string
		want     string
	}{
		{123450, "EUR", "en", "EUR 1,234.50"},
		{123450, "EUR", "it", "EUR 1.234,50"},
		{5, "", "en", "0.05"},
		{-1234567, "USD", "en", "USD -12,345.67"},
		{100, "EUR", "not a locale!", "EUR 1.00"},
		{math.MinInt64, "EUR", "en", "EUR -92,233,720,368,547,758.08"},
		{math.MaxInt64, "", "it", "92.233.720.368.547.758,07"},
	}
	for _, tc := range cases {
		if got := FormatMoney(Cents(tc.cents), tc.currency, tc.locale); got != tc.want {
			t.Fatalf("%d %s expected %q, got %q", tc.cents, tc.locale, tc.want, got)
		}
	}
}
