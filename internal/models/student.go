package models

import "time"

// Student is one enrolled student. All demographic and academic fields are
// free-form text entered by the clerk; only the id and owning school carry
// any identity invariant.
type Student struct {
	ID         string
	SchoolID   string
	SchoolName string

	Name          string
	MotherName    string
	MotherTongue  string
	RaceCaste     string
	Nationality   string
	BirthPlace    string
	DateOfBirth   string
	LastSchool    string
	DateAdmission string
	Standard      string
	Progress      string
	Conduct       string
	DateLeaving   string
	ReasonLeaving string
	Remark        string

	CreatedAt time.Time
	UpdatedAt time.Time
}
