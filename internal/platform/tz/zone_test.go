package tz

import (
	"errors"
	"testing"
	"time"
)

func TestToUTC_RecifeOffset(t *testing.T) {
	got, err := Recife.ToUTC("2024-06-10", "09:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s := FormatUTC(got); s != "2024-06-10T12:00:00Z" {
		t.Errorf("expected 2024-06-10T12:00:00Z, got %s", s)
	}
}

func TestToUTC_CrossesMonthAndYear(t *testing.T) {
	tests := []struct {
		date, clock, want string
	}{
		{"2024-06-30", "22:00", "2024-07-01T01:00:00Z"},
		{"2023-12-31", "21:30", "2024-01-01T00:30:00Z"},
		{"2024-02-29", "23:59", "2024-03-01T02:59:00Z"},
		{"2024-01-01", "00:00", "2024-01-01T03:00:00Z"},
	}
	for _, tt := range tests {
		got, err := Recife.ToUTC(tt.date, tt.clock)
		if err != nil {
			t.Fatalf("ToUTC(%s %s): %v", tt.date, tt.clock, err)
		}
		if s := FormatUTC(got); s != tt.want {
			t.Errorf("ToUTC(%s %s) = %s, want %s", tt.date, tt.clock, s, tt.want)
		}
	}
}

func TestSplit_MidnightBoundary(t *testing.T) {
	// 02:59Z on the 1st is still the previous day in Recife.
	wc := Recife.Split(time.Date(2024, 7, 1, 2, 59, 0, 0, time.UTC))
	if wc.Date != "2024-06-30" || wc.Clock != "23:59" {
		t.Errorf("unexpected wall clock %+v", wc)
	}
	wc = Recife.Split(time.Date(2024, 7, 1, 3, 0, 0, 0, time.UTC))
	if wc.Date != "2024-07-01" || wc.Clock != "00:00" {
		t.Errorf("unexpected wall clock %+v", wc)
	}
}

func TestRoundTrip(t *testing.T) {
	start := time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 24*60; i += 7 {
		instant := start.Add(time.Duration(i) * 37 * time.Minute)
		wc := Recife.Split(instant)
		back, err := Recife.ToUTC(wc.Date, wc.Clock)
		if err != nil {
			t.Fatalf("ToUTC: %v", err)
		}
		if !back.Equal(instant) {
			t.Fatalf("round trip of %s gave %s", instant, back)
		}
	}
}

func TestToUTC_IgnoresHostZone(t *testing.T) {
	orig := time.Local
	defer func() { time.Local = orig }()

	time.Local = time.FixedZone("Elsewhere", 9*60*60)
	got, _ := Recife.ToUTC("2024-06-10", "09:00")
	if FormatUTC(got) != "2024-06-10T12:00:00Z" {
		t.Errorf("host zone leaked into conversion: %s", FormatUTC(got))
	}
}

func TestToUTC_Invalid(t *testing.T) {
	if _, err := Recife.ToUTC("10/06/2024", "09:00"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
	if _, err := Recife.ToUTC("2024-06-10", "9h"); !errors.Is(err, ErrInvalidClock) {
		t.Errorf("expected ErrInvalidClock, got %v", err)
	}
	if _, err := Recife.ParseLocal("2024-06-10T09:00"); !errors.Is(err, ErrInvalidTime) {
		t.Errorf("expected ErrInvalidTime, got %v", err)
	}
}

func TestParseLocal(t *testing.T) {
	got, err := Recife.ParseLocal("2024-06-10 09:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if FormatUTC(got) != "2024-06-10T12:00:00Z" {
		t.Errorf("got %s", FormatUTC(got))
	}
}

func TestParseInstant(t *testing.T) {
	want := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	for _, s := range []string{
		"2024-06-10T12:00:00Z",
		"2024-06-10T12:00:00.000Z",
		"2024-06-10T09:00:00-03:00",
		"2024-06-10T12:00:00",
		"2024-06-10T12:00:00.000000",
		"2024-06-10 12:00:00",
	} {
		got, err := ParseInstant(s)
		if err != nil {
			t.Errorf("ParseInstant(%q): %v", s, err)
			continue
		}
		if !got.Equal(want) || got.Location() != time.UTC {
			t.Errorf("ParseInstant(%q) = %v", s, got)
		}
	}
	if _, err := ParseInstant("yesterday"); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestMonthRange(t *testing.T) {
	from, to := Recife.MonthRange(2024, time.June)
	if FormatUTC(from) != "2024-06-01T03:00:00Z" || FormatUTC(to) != "2024-07-01T03:00:00Z" {
		t.Errorf("unexpected range %s - %s", FormatUTC(from), FormatUTC(to))
	}
	from, _ = Recife.MonthRange(2024, 13)
	if FormatUTC(from) != "2025-01-01T03:00:00Z" {
		t.Errorf("month 13 should normalise to January, got %s", FormatUTC(from))
	}
}

func TestWeekRange_MondayStart(t *testing.T) {
	// 2024-06-16 is a Sunday.
	from, to, err := Recife.WeekRange("2024-06-16")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Recife.DateKey(from) != "2024-06-10" || Recife.DateKey(to) != "2024-06-17" {
		t.Errorf("unexpected week %s - %s", Recife.DateKey(from), Recife.DateKey(to))
	}
}

func TestDayRangeAndAddDays(t *testing.T) {
	from, to, err := Recife.DayRange("2024-12-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if FormatUTC(from) != "2024-12-31T03:00:00Z" || FormatUTC(to) != "2025-01-01T03:00:00Z" {
		t.Errorf("unexpected day range %s - %s", FormatUTC(from), FormatUTC(to))
	}
	if d, _ := AddDays("2024-02-28", 2); d != "2024-03-01" {
		t.Errorf("AddDays = %s", d)
	}
	if ValidDateKey("2024-13-01") {
		t.Error("month 13 is not a valid date key")
	}
}
