package models

import "strings"

// Education levels form a 3-tier ordinal hierarchy.
const (
	EducationMiddleSchool = "middle school"
	EducationHighSchool   = "high school"
	EducationUniversity   = "university"
)

// Meeting preferences.
const (
	MeetingOnline   = "online"
	MeetingInPerson = "in person"
	MeetingBoth     = "both"
)

// ValidEducationLevels lists the accepted education_level values.
var ValidEducationLevels = []string{
	EducationMiddleSchool,
	EducationHighSchool,
	EducationUniversity,
}

// ValidMeetingPreferences lists the accepted meeting_preference values.
var ValidMeetingPreferences = []string{
	MeetingOnline,
	MeetingInPerson,
	MeetingBoth,
}

// ValidLanguages is the fixed language enum shared by students and mentors.
var ValidLanguages = []string{
	"English", "Spanish", "French", "German", "Mandarin", "Swedish", "Arabic",
	"Portuguese", "Italian", "Russian", "Japanese", "Korean", "Hindi", "Dutch",
	"Polish", "Turkish", "Norwegian", "Danish", "Finnish", "Other",
}

// Person carries the profile fields shared by students and mentors.
// Mentors additionally require ID; Skills and Hobbies are mentor-only.
type Person struct {
	ID                string   `json:"id,omitempty"`
	FirstName         string   `json:"first_name,omitempty"`
	LastName          string   `json:"last_name,omitempty"`
	Role              string   `json:"role,omitempty"`
	EducationLevel    string   `json:"education_level"`
	Postcode          string   `json:"postcode"`
	City              string   `json:"city"`
	Interests         []string `json:"interests"`
	Languages         []string `json:"languages"`
	MeetingPreference string   `json:"meeting_preference"`
	Bio               string   `json:"bio,omitempty"`
	Goals             string   `json:"goals,omitempty"`
	Subjects          []string `json:"subjects,omitempty"`
	Skills            []string `json:"skills,omitempty"`
	Hobbies           []string `json:"hobbies,omitempty"`
}

// EducationRank maps an education level to its ordinal rank, 0 when unknown.
func EducationRank(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case EducationMiddleSchool:
		return 1
	case EducationHighSchool:
		return 2
	case EducationUniversity:
		return 3
	default:
		return 0
	}
}

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate is inside the ±90/±180 range.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// StudentKey is the coordinate-map key used for the requesting student;
// mentors are keyed by their id.
const StudentKey = "student"
