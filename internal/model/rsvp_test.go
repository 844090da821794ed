// Copyright (C) 2026 the quixsi maintainers
// See root-dir/LICENSE for more information

package model

import (
	"testing"
	"time"
)

func TestNormalizeName(t *testing.T) {
	tt := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "Jane Doe", want: "jane doe"},
		{name: "surrounding whitespace", input: "  jane doe \t", want: "jane doe"},
		{name: "inner runs collapse", input: "Jane   \t Doe", want: "jane doe"},
		{name: "case folded", input: "JANE DOE", want: "jane doe"},
		{name: "unicode fold", input: "Großmann", want: "grossmann"},
		{name: "empty", input: "   ", want: ""},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeName(tc.input); got != tc.want {
				t.Fatalf("NormalizeName(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestRecord_Matches(t *testing.T) {
	record := &Record{Name: "Jane Doe", PlusOneName: "John Smith"}

	tt := []struct {
		name      string
		candidate string
		want      bool
	}{
		{name: "own name", candidate: "Jane Doe", want: true},
		{name: "own name messy", candidate: " JANE   doe ", want: true},
		{name: "plus one name", candidate: "john smith", want: true},
		{name: "joint query", candidate: "jane doe & john smith", want: true},
		{name: "joint query one hit", candidate: "nobody & Jane Doe", want: true},
		{name: "miss", candidate: "Someone Else", want: false},
		{name: "empty", candidate: " & ", want: false},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := record.Matches(tc.candidate); got != tc.want {
				t.Fatalf("Matches(%q) = %v, want %v", tc.candidate, got, tc.want)
			}
		})
	}
}

func TestRecord_Merge(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	created := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	t.Run("overwrites answers in place", func(t *testing.T) {
		record := &Record{
			Name:             "Jane Doe",
			Email:            "old@example.com",
			PlusOneAllowance: 1,
			CreatedAt:        Timestamp{created},
			UpdatedAt:        Timestamp{created},
		}
		record.Merge(&RsvpParams{
			Name:             "jane doe",
			Email:            "new@example.com",
			Attending:        AttendanceAttending,
			AttendingBrunch:  true,
			MealChoice:       "fish",
			PlusOneName:      "Carol",
			PlusOneAttending: AttendanceAttending,
		}, now)

		if record.Name != "Jane Doe" {
			t.Fatalf("merge must keep the seeded display name, got %q", record.Name)
		}
		if record.Email != "new@example.com" {
			t.Fatalf("unexpected email %q", record.Email)
		}
		if record.Attending != AttendanceAttending || !record.AttendingBrunch {
			t.Fatal("attendance answers not applied")
		}
		if record.PlusOneName != "Carol" || record.PlusOneAttending != AttendanceAttending {
			t.Fatal("plus-one answers not applied")
		}
		if !record.CreatedAt.Equal(created) {
			t.Fatal("merge must not touch created_at")
		}
		if !record.UpdatedAt.Equal(now) {
			t.Fatal("merge must refresh updated_at")
		}
		if !record.Complete() {
			t.Fatal("record with an attendance answer is complete")
		}
	})

	t.Run("no allowance drops plus-one answers", func(t *testing.T) {
		record := &Record{Name: "Jane Doe", PlusOneAllowance: 0}
		record.Merge(&RsvpParams{
			Name:             "Jane Doe",
			Attending:        AttendanceDeclined,
			PlusOneName:      "Carol",
			PlusOneAttending: AttendanceAttending,
		}, now)

		if record.PlusOneName != "" || record.PlusOneAttending != AttendanceUnknown {
			t.Fatalf("plus-one answers must be dropped, got %q/%v", record.PlusOneName, record.PlusOneAttending)
		}
	})

	t.Run("empty email keeps the old one", func(t *testing.T) {
		record := &Record{Name: "Jane Doe", Email: "old@example.com"}
		record.Merge(&RsvpParams{Name: "Jane Doe", Attending: AttendanceAttending}, now)
		if record.Email != "old@example.com" {
			t.Fatalf("unexpected email %q", record.Email)
		}
	})
}

func TestNewRecord(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	tt := []struct {
		name          string
		params        AddParams
		wantAllowance int
	}{
		{name: "bare", params: AddParams{Name: "Jane Doe"}, wantAllowance: 0},
		{name: "explicit allowance", params: AddParams{Name: "Jane Doe", PlusOneAllowance: 2}, wantAllowance: 2},
		{name: "seeded plus-one implies allowance", params: AddParams{Name: "Jane Doe", PlusOneName: "John"}, wantAllowance: 1},
		{name: "negative clamps", params: AddParams{Name: "Jane Doe", PlusOneAllowance: -3}, wantAllowance: 0},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			record := NewRecord(&tc.params, now)
			if record.PlusOneAllowance != tc.wantAllowance {
				t.Fatalf("allowance = %d, want %d", record.PlusOneAllowance, tc.wantAllowance)
			}
			if record.Complete() {
				t.Fatal("freshly added guest must not be complete")
			}
			if !record.CreatedAt.Equal(now) || !record.UpdatedAt.Equal(now) {
				t.Fatal("timestamps not seeded")
			}
		})
	}

	t.Run("display name whitespace is tidied", func(t *testing.T) {
		record := NewRecord(&AddParams{Name: "  Jane   Doe "}, now)
		if record.Name != "Jane Doe" {
			t.Fatalf("unexpected display name %q", record.Name)
		}
	})
}

func TestCountAttendance(t *testing.T) {
	records := []*Record{
		{Attending: AttendanceAttending, AttendingRehearsal: true},
		{Attending: AttendanceAttending, PlusOneName: "X", PlusOneAttending: AttendanceAttending, AttendingBrunch: true},
		{Attending: AttendanceDeclined},
		{},
	}

	got := CountAttendance(records)
	want := AttendanceCount{Attending: 3, Rehearsal: 1, Brunch: 2}
	if got != want {
		t.Fatalf("CountAttendance = %+v, want %+v", got, want)
	}
}
