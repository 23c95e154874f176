// internal/workers/matching/calculate-matches/scorer_test.go
package calculatematches

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentormatch/internal/common/logger"
	"mentormatch/internal/models"
)

func testStudent() models.Person {
	return models.Person{
		EducationLevel:    models.EducationHighSchool,
		Postcode:          "11122",
		City:              "Stockholm",
		Interests:         []string{"Technology", "Gaming"},
		Languages:         []string{"Swedish", "English"},
		MeetingPreference: models.MeetingOnline,
	}
}

func testMentor(id string) models.Person {
	return models.Person{
		ID:                id,
		EducationLevel:    models.EducationHighSchool,
		Postcode:          "11123",
		City:              "Stockholm",
		Interests:         []string{"Technology", "Gaming"},
		Languages:         []string{"Swedish", "English"},
		MeetingPreference: models.MeetingOnline,
	}
}

func TestScorer_IdenticalProfilesScore(t *testing.T) {
	scorer := NewScorer(logger.NewNoOpLogger())

	matches := scorer.CalculateMatches(testStudent(), []models.Person{testMentor("m-1")}, nil)

	require.Len(t, matches, 1)
	// interests 100*0.25 + languages 90*0.15 + education 100*0.10 +
	// meeting 100*0.05 + distance 90*0.05 + subjects 85*0.15 + bio 85*0.25 = 92
	assert.Equal(t, 92, matches[0].Score)
}

func TestScorer_NoSharedLanguageExcluded(t *testing.T) {
	scorer := NewScorer(logger.NewNoOpLogger())

	mentor := testMentor("m-1")
	mentor.Languages = []string{"French"}

	matches := scorer.CalculateMatches(testStudent(), []models.Person{mentor}, nil)
	assert.Empty(t, matches, "no shared language is a hard filter")
}

func TestScorer_MissingRequiredFieldExcluded(t *testing.T) {
	scorer := NewScorer(logger.NewNoOpLogger())

	mentor := testMentor("m-1")
	mentor.Interests = nil

	matches := scorer.CalculateMatches(testStudent(), []models.Person{mentor}, nil)
	assert.Empty(t, matches)
}

func TestScorer_SortedDescendingStableTies(t *testing.T) {
	scorer := NewScorer(logger.NewNoOpLogger())

	strong := testMentor("strong")

	weakA := testMentor("weak-a")
	weakA.Interests = []string{"Art"}
	weakA.Languages = []string{"Swedish"}
	weakA.MeetingPreference = models.MeetingInPerson

	weakB := testMentor("weak-b")
	weakB.Interests = []string{"Art"}
	weakB.Languages = []string{"Swedish"}
	weakB.MeetingPreference = models.MeetingInPerson

	matches := scorer.CalculateMatches(testStudent(), []models.Person{weakA, strong, weakB}, nil)

	require.Len(t, matches, 3)
	assert.Equal(t, "strong", matches[0].MentorID)
	assert.Equal(t, "weak-a", matches[1].MentorID, "equal scores keep input order")
	assert.Equal(t, "weak-b", matches[2].MentorID)
	assert.Equal(t, matches[1].Score, matches[2].Score)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestScorer_ScoresWithinRange(t *testing.T) {
	scorer := NewScorer(logger.NewNoOpLogger())

	student := testStudent()
	student.Bio = "I love technology, gaming and music and want a career in software"
	student.Goals = "learn more about engineering and explore my options with a mentor"
	student.Subjects = []string{"Technology", "Mathematics"}

	mentor := testMentor("m-1")
	mentor.Bio = "Software engineer and game developer, passionate about music and technology"
	mentor.Role = "Senior Software Engineer"
	mentor.Skills = []string{"Software Development", "Statistics"}
	mentor.Hobbies = []string{"Gaming", "Music"}

	matches := scorer.CalculateMatches(student, []models.Person{mentor}, map[string]models.Coordinate{
		models.StudentKey: {Lat: 59.3293, Lng: 18.0686},
		"m-1":             {Lat: 59.3300, Lng: 18.0700},
	})

	require.Len(t, matches, 1)
	assert.GreaterOrEqual(t, matches[0].Score, 0)
	assert.LessOrEqual(t, matches[0].Score, 100)
	assert.Greater(t, matches[0].Score, 80, "a strongly aligned pair scores high")
}

func TestScorer_Deterministic(t *testing.T) {
	scorer := NewScorer(logger.NewNoOpLogger())

	student := testStudent()
	student.Bio = "interested in gaming and software careers"
	mentors := []models.Person{testMentor("a"), testMentor("b"), testMentor("c")}
	coords := map[string]models.Coordinate{
		models.StudentKey: {Lat: 59.3293, Lng: 18.0686},
		"a":               {Lat: 59.40, Lng: 18.10},
		"b":               {Lat: 57.7089, Lng: 11.9746},
	}

	first := scorer.CalculateMatches(student, mentors, coords)
	second := scorer.CalculateMatches(student, mentors, coords)
	assert.Equal(t, first, second)
}

func TestDistanceScore(t *testing.T) {
	stockholm := &models.Coordinate{Lat: 59.3293, Lng: 18.0686}
	gothenburg := &models.Coordinate{Lat: 57.7089, Lng: 11.9746}
	nearby := &models.Coordinate{Lat: 59.3300, Lng: 18.0700}
	midRange := &models.Coordinate{Lat: 59.5543, Lng: 18.0686} // ~25 km north
	// Due north by exactly the cap distance: one degree of latitude is
	// pi*6371/180 km.
	atCap := &models.Coordinate{Lat: stockholm.Lat + maxDistanceBonusKM/(math.Pi*6371/180), Lng: stockholm.Lng}

	tests := []struct {
		name    string
		a, b    *models.Coordinate
		check   func(t *testing.T, score float64)
	}{
		{
			name: "same point gets full score",
			a:    stockholm, b: stockholm,
			check: func(t *testing.T, score float64) { assert.Equal(t, 100.0, score) },
		},
		{
			name: "within 5km gets full score",
			a:    stockholm, b: nearby,
			check: func(t *testing.T, score float64) { assert.Equal(t, 100.0, score) },
		},
		{
			name: "mid range decays linearly",
			a:    stockholm, b: midRange,
			check: func(t *testing.T, score float64) {
				assert.Greater(t, score, 20.0)
				assert.Less(t, score, 100.0)
			},
		},
		{
			name: "exactly at cap gets floor",
			a:    stockholm, b: atCap,
			check: func(t *testing.T, score float64) { assert.InDelta(t, 20.0, score, 1e-6) },
		},
		{
			name: "beyond cap gets floor",
			a:    stockholm, b: gothenburg,
			check: func(t *testing.T, score float64) { assert.Equal(t, 20.0, score) },
		},
		{
			name: "missing coordinate is neutral",
			a:    stockholm, b: nil,
			check: func(t *testing.T, score float64) { assert.Equal(t, 90.0, score) },
		},
		{
			name: "both missing is neutral",
			a:    nil, b: nil,
			check: func(t *testing.T, score float64) { assert.Equal(t, 90.0, score) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, distanceScore(tt.a, tt.b))
		})
	}
}

func TestHaversineKM(t *testing.T) {
	// Stockholm to Gothenburg is roughly 400 km.
	d := haversineKM(59.3293, 18.0686, 57.7089, 11.9746)
	assert.InDelta(t, 398, d, 10)

	assert.Zero(t, haversineKM(59.3293, 18.0686, 59.3293, 18.0686))
}

func TestSubjectScore(t *testing.T) {
	student := models.Person{Subjects: []string{"💻 Technology"}}

	mentorWithSkill := models.Person{Skills: []string{"Software Engineering"}}
	assert.Equal(t, 95.0, subjectScore(student, mentorWithSkill), "skill match earns the full bonus step")

	mentorWithBio := models.Person{Bio: "I spent years programming embedded systems"}
	assert.Equal(t, 92.0, subjectScore(student, mentorWithBio), "bio mention counts at reduced weight")

	assert.Equal(t, 85.0, subjectScore(models.Person{}, mentorWithSkill), "no subjects means baseline")

	mentorNoMatch := models.Person{Skills: []string{"Baking"}}
	assert.Equal(t, 85.0, subjectScore(student, mentorNoMatch))
}

func TestBioGoalsScore(t *testing.T) {
	mentor := models.Person{
		Bio:    "Senior developer at a tech firm",
		Skills: []string{"Go"},
	}

	student := models.Person{Goals: "I want a career in software"}
	// base 70 + career alignment 15 + "career" intent 10
	assert.Equal(t, 95.0, bioGoalsScore(student, mentor))

	assert.Equal(t, 85.0, bioGoalsScore(models.Person{}, mentor), "no student text means generous default")

	unsure := models.Person{Goals: "i don't know yet"}
	assert.Equal(t, 70.0, bioGoalsScore(unsure, mentor))
}

func TestEducationScore(t *testing.T) {
	same := models.Person{EducationLevel: models.EducationUniversity}
	other := models.Person{EducationLevel: models.EducationHighSchool}
	unknown := models.Person{EducationLevel: "kindergarten"}
	empty := models.Person{}

	assert.Equal(t, 100.0, educationScore(same, same))
	assert.Equal(t, 95.0, educationScore(other, same), "different known levels still score well")
	assert.Equal(t, 90.0, educationScore(same, unknown))
	assert.Equal(t, 90.0, educationScore(empty, same))
}
