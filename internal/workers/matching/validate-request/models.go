// internal/workers/matching/validate-request/models.go
package validaterequest

import "encoding/json"

// Input keeps the request fields raw. Validation distinguishes a missing
// field from a present-but-malformed one, which a fully typed struct erases.
type Input struct {
	Student json.RawMessage `json:"student"`
	Mentors json.RawMessage `json:"mentors"`
}

type Output struct {
	Valid   bool `json:"valid"`
	Mentors int  `json:"mentors"`
}
