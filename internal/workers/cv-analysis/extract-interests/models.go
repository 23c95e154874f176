// internal/workers/cv-analysis/extract-interests/models.go
package extractinterests

type Input struct {
	CVText string `json:"cv_text"`
}

type Output struct {
	Interests []string `json:"interests"`
}
