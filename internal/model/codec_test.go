// Copyright (C) 2026 the quixsi maintainers
// See root-dir/LICENSE for more information

package model

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func fullRecord() *Record {
	created := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	return &Record{
		Name:                "Jane Doe",
		Email:               "jane@example.com",
		Attending:           AttendanceAttending,
		AttendingRehearsal:  true,
		AttendingBrunch:     false,
		MealChoice:          "Fish",
		DietaryRestrictions: "none",
		PlusOneAllowance:    1,
		PlusOneName:         "John Smith",
		PlusOneAttending:    AttendanceDeclined,
		PlusOneMealChoice:   "Veggies",
		PlusOneDietary:      "vegetarian",
		Comments:            "Can't wait!",
		CreatedAt:           Timestamp{created},
		UpdatedAt:           Timestamp{created.Add(time.Hour)},
	}
}

func TestRecordsRoundTrip(t *testing.T) {
	tt := []struct {
		name    string
		records []*Record
	}{
		{name: "empty", records: nil},
		{name: "one bare record", records: []*Record{{Name: "Jane Doe"}}},
		{name: "every field exercised", records: []*Record{fullRecord()}},
		{
			name: "weird characters",
			records: []*Record{
				{Name: "comma, included"},
				{Name: "newline\nincluded"},
				{Name: `quote " included`, Comments: "both,\nat \"once\""},
			},
		},
		{
			name: "order preserved",
			records: []*Record{
				{Name: "Charlie"},
				{Name: "Alice"},
				{Name: "Bob"},
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			first, err := MarshalRecords(tc.records)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			parsed, err := UnmarshalRecords(first)
			if err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if len(parsed) != len(tc.records) {
				t.Fatalf("got %d records, want %d", len(parsed), len(tc.records))
			}
			for i, r := range parsed {
				if r.Name != tc.records[i].Name {
					t.Fatalf("row %d: name %q, want %q", i, r.Name, tc.records[i].Name)
				}
			}
			second, err := MarshalRecords(parsed)
			if err != nil {
				t.Fatalf("re-marshal: %v", err)
			}
			if !bytes.Equal(first, second) {
				t.Fatalf("round trip not byte-identical:\n%q\nvs\n%q", first, second)
			}
		})
	}
}

func TestRecordsRoundTripFields(t *testing.T) {
	want := fullRecord()
	data, err := MarshalRecords([]*Record{want})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	parsed, err := UnmarshalRecords(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := parsed[0]

	if got.Email != want.Email ||
		got.Attending != want.Attending ||
		got.AttendingRehearsal != want.AttendingRehearsal ||
		got.AttendingBrunch != want.AttendingBrunch ||
		got.MealChoice != want.MealChoice ||
		got.DietaryRestrictions != want.DietaryRestrictions ||
		got.PlusOneAllowance != want.PlusOneAllowance ||
		got.PlusOneName != want.PlusOneName ||
		got.PlusOneAttending != want.PlusOneAttending ||
		got.PlusOneMealChoice != want.PlusOneMealChoice ||
		got.PlusOneDietary != want.PlusOneDietary ||
		got.Comments != want.Comments {
		t.Fatalf("parsed record differs:\n%+v\nwant\n%+v", got, want)
	}
	if !got.CreatedAt.Equal(want.CreatedAt.Time) || !got.UpdatedAt.Equal(want.UpdatedAt.Time) {
		t.Fatal("timestamps did not survive the round trip")
	}
}

func TestUnmarshalRecords_Errors(t *testing.T) {
	header := "name,email,attending,attending_rehearsal,attending_brunch,meal_choice," +
		"dietary_restrictions,plus_one_allowance,plus_one_name,plus_one_attending," +
		"plus_one_meal_choice,plus_one_dietary_restrictions,comments,created_at,updated_at"

	row := func(name, attending string) string {
		return name + "," + "," + attending + ",false,false,,,0,,,,,,,"
	}

	tt := []struct {
		name  string
		input string
	}{
		{name: "garbage", input: "not,a\nguest\"list"},
		{name: "bad attendance value", input: header + "\n" + row("Jane Doe", "maybe")},
		{name: "duplicate normalized names", input: header + "\n" + row("Jane Doe", "") + "\n" + row(" jane  DOE ", "")},
		{name: "empty name", input: header + "\n" + row("   ", "")},
		{name: "bad timestamp", input: header + "\nJane Doe,,,false,false,,,0,,,,,,not-a-time,"},
		{name: "wrong field count", input: header + "\nJane Doe,,attending"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := UnmarshalRecords([]byte(tc.input))
			if !errors.Is(err, ErrMalformedFile) {
				t.Fatalf("err = %v, want ErrMalformedFile", err)
			}
		})
	}
}

func TestUnmarshalRecords_Empty(t *testing.T) {
	records, err := UnmarshalRecords(nil)
	if err != nil || len(records) != 0 {
		t.Fatalf("empty input: records=%v err=%v", records, err)
	}

	headerOnly, err := MarshalRecords(nil)
	if err != nil {
		t.Fatalf("marshal empty: %v", err)
	}
	records, err = UnmarshalRecords(headerOnly)
	if err != nil || len(records) != 0 {
		t.Fatalf("header-only input: records=%v err=%v", records, err)
	}
}
