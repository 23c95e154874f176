// internal/workers/matching/calculate-matches/scorer.go
package calculatematches

import (
	"math"
	"sort"
	"strings"

	"mentormatch/internal/common/logger"
	"mentormatch/internal/models"
)

// Criterion weights, in percent. Must sum to 100.
var weights = struct {
	Interests   float64
	Languages   float64
	Education   float64
	MeetingPref float64
	Distance    float64
	Subjects    float64
	BioGoals    float64
}{
	Interests:   25,
	Languages:   15,
	Education:   10,
	MeetingPref: 5,
	Distance:    5,
	Subjects:    15,
	BioGoals:    25,
}

// Distance beyond which proximity stops contributing.
const maxDistanceBonusKM = 50.0

// Scorer ranks mentors against a student profile. Scoring is pure: same
// inputs always produce the same ranked list.
type Scorer struct {
	logger logger.Logger
}

func NewScorer(log logger.Logger) *Scorer {
	return &Scorer{logger: log}
}

// CalculateMatches scores every mentor and returns those with score > 0,
// sorted by score descending. The sort is stable, so equal scores keep the
// mentor input order.
func (s *Scorer) CalculateMatches(student models.Person, mentors []models.Person, coords map[string]models.Coordinate) []models.MatchResult {
	studentCoord, studentHasCoord := coords[models.StudentKey]

	matches := make([]models.MatchResult, 0, len(mentors))
	for _, mentor := range mentors {
		mentorCoord, mentorHasCoord := coords[mentor.ID]
		score := s.scorePair(student, mentor,
			coordPtr(studentCoord, studentHasCoord),
			coordPtr(mentorCoord, mentorHasCoord))
		if score > 0 {
			matches = append(matches, models.MatchResult{MentorID: mentor.ID, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	s.logger.Info("matches generated", map[string]interface{}{
		"mentors": len(mentors),
		"matches": len(matches),
	})
	return matches
}

func coordPtr(c models.Coordinate, ok bool) *models.Coordinate {
	if !ok {
		return nil
	}
	return &c
}

// scorePair returns the weighted score in [0, 100], or 0 when the pair fails
// a hard filter.
func (s *Scorer) scorePair(student, mentor models.Person, studentCoord, mentorCoord *models.Coordinate) int {
	if !passesHardFilters(student, mentor) {
		return 0
	}

	total := interestScore(student, mentor)*(weights.Interests/100) +
		languageScore(student, mentor)*(weights.Languages/100) +
		educationScore(student, mentor)*(weights.Education/100) +
		meetingScore(student, mentor)*(weights.MeetingPref/100) +
		distanceScore(studentCoord, mentorCoord)*(weights.Distance/100) +
		subjectScore(student, mentor)*(weights.Subjects/100) +
		bioGoalsScore(student, mentor)*(weights.BioGoals/100)

	return int(math.Round(total))
}

// passesHardFilters rejects pairs with no shared language or with a missing
// required field. Rejected pairs score 0 and are excluded from results.
func passesHardFilters(student, mentor models.Person) bool {
	if len(intersect(student.Languages, mentor.Languages)) == 0 {
		return false
	}

	for _, p := range []models.Person{student, mentor} {
		if p.EducationLevel == "" || len(p.Interests) == 0 || len(p.Languages) == 0 || p.MeetingPreference == "" {
			return false
		}
	}
	return true
}

// interestScore: baseline 70 without overlap, else a ratio-driven base
// capped at 90 plus an overlap-count bonus capped at 30, all capped at 100.
func interestScore(student, mentor models.Person) float64 {
	if len(student.Interests) == 0 || len(mentor.Interests) == 0 {
		return 70
	}

	overlap := intersect(student.Interests, mentor.Interests)
	if len(overlap) == 0 {
		return 70
	}

	overlapRatio := float64(len(overlap)) / float64(len(student.Interests))
	bonus := math.Min(float64(len(overlap))*8, 30)
	base := math.Min(overlapRatio*70+70, 90)

	return math.Min(base+bonus, 100)
}

// languageScore: 80 without overlap, else 85 plus 5 per extra shared
// language, capped at 100. Hard filters already guarantee overlap here.
func languageScore(student, mentor models.Person) float64 {
	if len(student.Languages) == 0 || len(mentor.Languages) == 0 {
		return 80
	}

	overlap := intersect(student.Languages, mentor.Languages)
	if len(overlap) == 0 {
		return 80
	}

	return math.Min(85+float64(len(overlap)-1)*5, 100)
}

// educationScore: 100 for the same level, 95 for any other known pairing,
// 90 when either side is missing or unknown.
func educationScore(student, mentor models.Person) float64 {
	studentRank := models.EducationRank(student.EducationLevel)
	mentorRank := models.EducationRank(mentor.EducationLevel)

	if studentRank == 0 || mentorRank == 0 {
		return 90
	}
	if studentRank == mentorRank {
		return 100
	}
	return 95
}

// meetingScore: 100 for an exact preference match, 95 when either side
// accepts both modes, 85 otherwise, 90 when a preference is missing.
func meetingScore(student, mentor models.Person) float64 {
	studentPref := strings.ToLower(strings.TrimSpace(student.MeetingPreference))
	mentorPref := strings.ToLower(strings.TrimSpace(mentor.MeetingPreference))

	if studentPref == "" || mentorPref == "" {
		return 90
	}
	if studentPref == mentorPref {
		return 100
	}
	if studentPref == models.MeetingBoth || mentorPref == models.MeetingBoth {
		return 95
	}
	return 85
}

// distanceScore: 90 when either coordinate is missing, 100 within 5 km,
// linear decay to 20 at the 50 km cap, 20 beyond.
func distanceScore(studentCoord, mentorCoord *models.Coordinate) float64 {
	if studentCoord == nil || mentorCoord == nil {
		return 90
	}
	if !studentCoord.Valid() || !mentorCoord.Valid() {
		return 50
	}

	km := haversineKM(studentCoord.Lat, studentCoord.Lng, mentorCoord.Lat, mentorCoord.Lng)
	if km <= 5 {
		return 100
	}
	if km <= maxDistanceBonusKM {
		return 100 - (km/maxDistanceBonusKM)*80
	}
	return 20
}

// haversineKM returns the great-circle distance between two points in km.
func haversineKM(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKM = 6371

	rLat1 := lat1 * math.Pi / 180
	rLng1 := lng1 * math.Pi / 180
	rLat2 := lat2 * math.Pi / 180
	rLng2 := lng2 * math.Pi / 180

	dLat := rLat2 - rLat1
	dLng := rLng2 - rLng1

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Asin(math.Sqrt(a))

	return c * earthRadiusKM
}

// subjectKeywords maps a normalized school subject to keywords looked for in
// the mentor's skills and bio.
var subjectKeywords = map[string][]string{
	"mathematics":        {"math", "mathematics", "statistics", "data", "analysis", "finance", "engineering"},
	"science":            {"science", "research", "biology", "chemistry", "physics", "lab", "environmental"},
	"technology":         {"technology", "tech", "software", "programming", "coding", "computer", "it", "web", "app"},
	"engineering":        {"engineering", "engineer", "mechanical", "civil", "design", "cad", "technical"},
	"english":            {"english", "writing", "communication", "literature", "language"},
	"history":            {"history", "historical", "culture", "social"},
	"geography":          {"geography", "travel", "global", "world", "maps", "culture"},
	"art":                {"art", "design", "creative", "visual", "graphic", "drawing", "painting"},
	"music":              {"music", "audio", "sound", "musician", "production", "producer"},
	"physical education": {"sports", "fitness", "athletics", "coaching", "physical", "training"},
}

// subjectScore: baseline 85 plus a bonus for subjects the mentor's skills or
// bio cover, capped at 100. A bio-only mention counts less than a skill.
func subjectScore(student, mentor models.Person) float64 {
	if len(student.Subjects) == 0 {
		return 85
	}

	mentorBio := strings.ToLower(mentor.Bio)

	var matched float64
	for _, subject := range student.Subjects {
		keywords := subjectKeywords[normalizeSubject(subject)]
		for _, keyword := range keywords {
			if anyContains(mentor.Skills, keyword) {
				matched++
				break
			}
			if strings.Contains(mentorBio, keyword) {
				matched += 0.7
				break
			}
		}
	}

	score := 85.0
	if matched > 0 {
		score = math.Min(score+math.Min(matched*10, 15), 100)
	}
	return score
}

// normalizeSubject strips decorative prefixes (emoji in UI payloads) and
// lowercases, so "💻 Technology" and "technology" hit the same keyword set.
func normalizeSubject(subject string) string {
	trimmed := strings.TrimSpace(subject)
	for i, r := range trimmed {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return strings.ToLower(strings.TrimSpace(trimmed[i:]))
		}
	}
	return strings.ToLower(trimmed)
}

func anyContains(values []string, keyword string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), keyword) {
			return true
		}
	}
	return false
}

// careerKeywords groups synonyms per career field. A field counts when both
// the student and the mentor text mention any of its keywords.
var careerKeywords = map[string][]string{
	"software":    {"software", "programmer", "developer", "coding", "engineering"},
	"data":        {"data", "analytics", "statistics", "machine learning", "ai"},
	"business":    {"business", "entrepreneur", "management", "finance", "marketing"},
	"design":      {"design", "creative", "ux", "ui", "graphic", "art"},
	"music":       {"music", "musician", "producer", "artist", "singer", "band"},
	"gaming":      {"game", "gaming", "esports", "streamer", "developer"},
	"science":     {"scientist", "research", "biology", "chemistry", "physics", "lab"},
	"medical":     {"doctor", "medicine", "healthcare", "nurse", "medical"},
	"teaching":    {"teacher", "education", "teaching", "professor", "tutor"},
	"sports":      {"sports", "athlete", "coach", "fitness", "trainer"},
	"engineering": {"engineer", "mechanical", "civil", "automotive", "technical"},
	"fashion":     {"fashion", "designer", "style", "clothing", "beauty"},
	"food":        {"chef", "cooking", "culinary", "restaurant", "food"},
	"aviation":    {"pilot", "aviation", "flight", "aerospace"},
	"content":     {"content", "creator", "influencer", "social media", "youtube"},
	"crypto":      {"crypto", "blockchain", "bitcoin", "cryptocurrency"},
}

// sharedInterestKeywords are hobby terms that earn a smaller bonus when they
// appear on both sides.
var sharedInterestKeywords = []string{
	"taylor swift", "music", "gaming", "games", "sports", "travel",
	"photography", "art", "reading", "books", "movies", "cooking",
	"fashion", "fitness", "nature", "animals", "pets", "technology",
}

// intentPhrases reward students who articulate what they want from a mentor.
var intentPhrases = map[string]float64{
	"i don't know": 0,
	"explore":      5,
	"learn more":   5,
	"career":       10,
	"mentor":       10,
}

// bioGoalsScore: keyword-level semantic match between the student's bio and
// goals and the mentor's profile text. 85 when the student wrote nothing,
// else base 70 plus career, shared-interest and intent bonuses, capped at 100.
func bioGoalsScore(student, mentor models.Person) float64 {
	studentBio := strings.ToLower(student.Bio)
	studentGoals := strings.ToLower(student.Goals)

	if strings.TrimSpace(studentBio) == "" && strings.TrimSpace(studentGoals) == "" {
		return 85
	}

	studentText := studentBio + " " + studentGoals
	mentorText := strings.ToLower(mentor.Bio) + " " + strings.ToLower(mentor.Role) + " " +
		strings.ToLower(strings.Join(mentor.Skills, " ")) + " " +
		strings.ToLower(strings.Join(mentor.Hobbies, " "))

	score := 70.0

	careerMatches := 0
	for _, keywords := range careerKeywords {
		if anyKeywordIn(studentText, keywords) && anyKeywordIn(mentorText, keywords) {
			careerMatches++
		}
	}
	if careerMatches > 0 {
		score += math.Min(float64(careerMatches)*15, 30)
	}

	interestMatches := 0
	for _, keyword := range sharedInterestKeywords {
		if strings.Contains(studentText, keyword) && strings.Contains(mentorText, keyword) {
			interestMatches++
		}
	}
	if interestMatches > 0 {
		score += math.Min(float64(interestMatches)*5, 15)
	}

	for phrase, bonus := range intentPhrases {
		if strings.Contains(studentText, phrase) {
			score += bonus
		}
	}

	return math.Min(score, 100)
}

func anyKeywordIn(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// intersect returns the set intersection, deduplicated, in a's order.
func intersect(a, b []string) []string {
	inB := make(map[string]struct{}, len(b))
	for _, v := range b {
		inB[v] = struct{}{}
	}

	var out []string
	seen := make(map[string]struct{})
	for _, v := range a {
		if _, ok := inB[v]; !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
