// Copyright (C) 2026 the quixsi maintainers
// See root-dir/LICENSE for more information

package model

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

type Attendance int

const (
	AttendanceUnknown Attendance = iota
	AttendanceAttending
	AttendanceDeclined
)

func (a Attendance) String() string {
	switch a {
	case AttendanceAttending:
		return "attending"
	case AttendanceDeclined:
		return "declined"
	default:
		return "unknown"
	}
}

// MarshalCSV serializes the attendance answer into the durable format.
// Unknown maps to the empty string so a freshly seeded row has empty
// answer columns.
func (a Attendance) MarshalCSV() (string, error) {
	switch a {
	case AttendanceAttending:
		return "attending", nil
	case AttendanceDeclined:
		return "declined", nil
	default:
		return "", nil
	}
}

// MarshalText mirrors the CSV encoding so JSON payloads and form values
// speak the same strings.
func (a Attendance) MarshalText() ([]byte, error) {
	s, err := a.MarshalCSV()
	return []byte(s), err
}

func (a *Attendance) UnmarshalText(text []byte) error {
	return a.UnmarshalCSV(string(text))
}

func (a *Attendance) UnmarshalCSV(field string) error {
	switch strings.TrimSpace(field) {
	case "attending":
		*a = AttendanceAttending
	case "declined":
		*a = AttendanceDeclined
	case "", "unknown":
		*a = AttendanceUnknown
	default:
		return &MalformedFieldError{Field: "attendance", Value: field}
	}
	return nil
}

// Timestamp wraps time.Time so it round-trips through the CSV codec.
// The zero value serializes as an empty column.
type Timestamp struct {
	time.Time
}

func (t Timestamp) MarshalCSV() (string, error) {
	if t.IsZero() {
		return "", nil
	}
	return t.UTC().Format(time.RFC3339), nil
}

func (t *Timestamp) UnmarshalCSV(field string) error {
	if strings.TrimSpace(field) == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, field)
	if err != nil {
		return &MalformedFieldError{Field: "timestamp", Value: field}
	}
	t.Time = parsed
	return nil
}

// Record is one guest's RSVP entry. The csv tags define the durable file
// format: one row per record, columns 1:1 with fields, header row first.
type Record struct {
	Name                string     `csv:"name" json:"name"`
	Email               string     `csv:"email" json:"email"`
	Attending           Attendance `csv:"attending" json:"attending"`
	AttendingRehearsal  bool       `csv:"attending_rehearsal" json:"attending_rehearsal"`
	AttendingBrunch     bool       `csv:"attending_brunch" json:"attending_brunch"`
	MealChoice          string     `csv:"meal_choice" json:"meal_choice"`
	DietaryRestrictions string     `csv:"dietary_restrictions" json:"dietary_restrictions"`
	PlusOneAllowance    int        `csv:"plus_one_allowance" json:"plus_one_allowance"`
	PlusOneName         string     `csv:"plus_one_name" json:"plus_one_name"`
	PlusOneAttending    Attendance `csv:"plus_one_attending" json:"plus_one_attending"`
	PlusOneMealChoice   string     `csv:"plus_one_meal_choice" json:"plus_one_meal_choice"`
	PlusOneDietary      string     `csv:"plus_one_dietary_restrictions" json:"plus_one_dietary_restrictions"`
	Comments            string     `csv:"comments" json:"comments"`
	CreatedAt           Timestamp  `csv:"created_at" json:"created_at"`
	UpdatedAt           Timestamp  `csv:"updated_at" json:"updated_at"`
}

// RsvpParams is a guest submission: the complete set of answers for one
// record, keyed by name. Decoded from the RSVP form.
type RsvpParams struct {
	Name                string     `form:"name" json:"name"`
	Email               string     `form:"email" json:"email"`
	Attending           Attendance `form:"attending" json:"attending"`
	AttendingRehearsal  bool       `form:"attending_rehearsal" json:"attending_rehearsal"`
	AttendingBrunch     bool       `form:"attending_brunch" json:"attending_brunch"`
	MealChoice          string     `form:"meal_choice" json:"meal_choice"`
	DietaryRestrictions string     `form:"dietary_restrictions" json:"dietary_restrictions"`
	PlusOneName         string     `form:"plus_one_name" json:"plus_one_name"`
	PlusOneAttending    Attendance `form:"plus_one_attending" json:"plus_one_attending"`
	PlusOneMealChoice   string     `form:"plus_one_meal_choice" json:"plus_one_meal_choice"`
	PlusOneDietary      string     `form:"plus_one_dietary_restrictions" json:"plus_one_dietary_restrictions"`
	Comments            string     `form:"comments" json:"comments"`
}

// AddParams seeds a new record through the management path.
type AddParams struct {
	Name             string `form:"name" json:"name"`
	Email            string `form:"email" json:"email"`
	PlusOneName      string `form:"plus_one_name" json:"plus_one_name"`
	PlusOneAllowance int    `form:"plus_one_allowance" json:"plus_one_allowance"`
}

// NameParams carries the lookup form input.
type NameParams struct {
	Name string `form:"name" json:"name"`
}

// AttendanceCount aggregates headcounts per event. An attending plus-one
// counts as a second head for every event its host answered yes to.
type AttendanceCount struct {
	Attending int `json:"attending"`
	Rehearsal int `json:"rehearsal"`
	Brunch    int `json:"brunch"`
}

var foldCaser = cases.Fold()

// NormalizeName maps a candidate name onto the unique record key: leading
// and trailing whitespace stripped, internal runs collapsed to single
// spaces, case folded.
func NormalizeName(name string) string {
	return foldCaser.String(strings.Join(strings.Fields(name), " "))
}

// NewRecord seeds a record from management add parameters. Answers start
// out unknown; a pre-seeded plus-one name implies an allowance of one.
func NewRecord(p *AddParams, now time.Time) *Record {
	allowance := p.PlusOneAllowance
	if allowance < 0 {
		allowance = 0
	}
	if p.PlusOneName != "" && allowance == 0 {
		allowance = 1
	}
	return &Record{
		Name:             strings.Join(strings.Fields(p.Name), " "),
		Email:            p.Email,
		PlusOneName:      p.PlusOneName,
		PlusOneAllowance: allowance,
		CreatedAt:        Timestamp{now},
		UpdatedAt:        Timestamp{now},
	}
}

// Merge overwrites the record's answers with a new submission. The stored
// display name and the plus-one allowance are seeded by the management
// path and survive the merge; plus-one answers are dropped entirely when
// no plus-one is allowed.
func (r *Record) Merge(p *RsvpParams, now time.Time) {
	if p.Email != "" {
		r.Email = p.Email
	}
	r.Attending = p.Attending
	r.AttendingRehearsal = p.AttendingRehearsal
	r.AttendingBrunch = p.AttendingBrunch
	r.MealChoice = p.MealChoice
	r.DietaryRestrictions = p.DietaryRestrictions
	r.Comments = p.Comments

	if r.PlusOneAllowance > 0 {
		r.PlusOneName = p.PlusOneName
		r.PlusOneAttending = p.PlusOneAttending
		r.PlusOneMealChoice = p.PlusOneMealChoice
		r.PlusOneDietary = p.PlusOneDietary
	} else {
		r.PlusOneName = ""
		r.PlusOneAttending = AttendanceUnknown
		r.PlusOneMealChoice = ""
		r.PlusOneDietary = ""
	}
	r.UpdatedAt = Timestamp{now}
}

// Complete reports whether the guest has answered at all.
func (r *Record) Complete() bool {
	return r.Attending != AttendanceUnknown
}

// Matches reports whether a candidate name refers to this record. A record
// answers to its own name and to its plus-one's name, and a joint query
// like "jane & john" matches if either part does.
func (r *Record) Matches(candidate string) bool {
	own := NormalizeName(r.Name)
	plusOne := NormalizeName(r.PlusOneName)
	for _, part := range strings.Split(candidate, "&") {
		name := NormalizeName(part)
		if name == "" {
			continue
		}
		if name == own || (plusOne != "" && name == plusOne) {
			return true
		}
	}
	return false
}

// Clone returns an independent copy, used by stores to hand out records
// without exposing internal state and to restore state on rollback.
func (r *Record) Clone() *Record {
	clone := *r
	return &clone
}

// Heads is the number of people this record brings to an event it
// answered yes for.
func (r *Record) Heads() int {
	heads := 1
	if r.PlusOneAttending == AttendanceAttending {
		heads = 2
	}
	return heads
}

// CountAttendance tallies headcounts over a full guest list.
func CountAttendance(records []*Record) AttendanceCount {
	var count AttendanceCount
	for _, r := range records {
		heads := r.Heads()
		if r.Attending == AttendanceAttending {
			count.Attending += heads
		}
		if r.AttendingRehearsal {
			count.Rehearsal += heads
		}
		if r.AttendingBrunch {
			count.Brunch += heads
		}
	}
	return count
}
