// internal/workers/matching/calculate-matches/models.go
package calculatematches

import "mentormatch/internal/models"

type Input struct {
	Student     models.Person                `json:"student"`
	Mentors     []models.Person              `json:"mentors"`
	Coordinates map[string]models.Coordinate `json:"coordinates"`
}

type Output struct {
	Matches []models.MatchResult `json:"matches"`
}
