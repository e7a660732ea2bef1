package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1", 1, true},
		{"-1.23", -1.23, true},
		{"1,23", 0, false},
		{" 2.50 ", 2.5, true},
		{"+3", 3, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestAmountValue(t *testing.T) {
	cases := []struct {
		in  any
		out float64
	}{
		{-4.5, -4.5},
		{json.Number("-8"), -8},
		{"12.25", 12.25},
		{"oops", 0},
		{"12,5", 0},
		{nil, 0},
		{true, 0},
		{7, 7},
	}
	for _, tc := range cases {
		if got := AmountValue(tc.in); got != tc.out {
			t.Fatalf("AmountValue(%v) = %v, want %v", tc.in, got, tc.out)
		}
	}
}

func TestRound2AndFormat(t *testing.T) {
	if got := Round2(16.666666); got != 16.67 {
		t.Fatalf("Round2 = %v", got)
	}
	if got := Round2(0.142857); got != 0.14 {
		t.Fatalf("Round2 = %v", got)
	}
	for in, want := range map[float64]string{0: "0.00", 50: "50.00", -3.456: "-3.46", 16.666: "16.67"} {
		if got := FormatAmount(in); got != want {
			t.Fatalf("FormatAmount(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatDateAndTime(t *testing.T) {
	if got := FormatDate("2024-03-05 07:08:09"); got != "2024-03-05" {
		t.Fatalf("FormatDate = %q", got)
	}
	if got := FormatDate("not a date"); got != "not a date" {
		t.Fatalf("unparseable dates are returned as-is, got %q", got)
	}
	if got := FormatDate(""); got != "" {
		t.Fatalf("FormatDate(\"\") = %q", got)
	}
	if got := FormatTime("2024-03-05 07:08:09"); got != "07:08:09" {
		t.Fatalf("FormatTime = %q", got)
	}
}

func TestCalendarHelpers(t *testing.T) {
	cases := []struct {
		year  int
		month int
		days  int
	}{
		{2023, 2, 28},
		{2024, 2, 29},
		{1900, 2, 28},
		{2000, 2, 29},
		{2024, 1, 31},
		{2024, 4, 30},
		{2024, 12, 31},
	}
	for _, tc := range cases {
		if got := DaysIn(tc.year, time.Month(tc.month)); got != tc.days {
			t.Fatalf("DaysIn(%d,%d) = %d, want %d", tc.year, tc.month, got, tc.days)
		}
	}
	if DaysInYear(2024) != 366 || DaysInYear(2023) != 365 {
		t.Fatalf("DaysInYear wrong")
	}
}

func TestBookTagType(t *testing.T) {
	if BookTagType("房租") != "danger" || BookTagType(DefaultExcludedBook) != "info" || BookTagType("unknown") != "" {
		t.Fatalf("unexpected book tag types")
	}
}
