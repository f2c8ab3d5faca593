package pharmaninja

// AskRequest is one question with optional filter attributes.
type AskRequest struct {
	Question string `json:"question"`
	Lang     string `json:"lang,omitempty"`
	Stage    string `json:"stage,omitempty"`
	Subject  string `json:"subject,omitempty"`
}

// Source is the provenance of one retrieved chunk.
type Source struct {
	ID      string  `json:"id"`
	Score   float64 `json:"score"`
	File    string  `json:"file"`
	Lang    string  `json:"lang"`
	Stage   string  `json:"stage,omitempty"`
	Subject string  `json:"subject,omitempty"`
}

// AskResponse is the synthesized answer with its provenance.
type AskResponse struct {
	Answer  string   `json:"answer"`
	Origin  string   `json:"origin"` // "generated" or "fallback"
	Lang    string   `json:"lang"`   // "EN" or "AR"
	Sources []Source `json:"sources"`
}

// HealthReport is the aggregated service health.
type HealthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Healthy reports whether all components passed their checks.
func (h HealthReport) Healthy() bool { return h.Status == "ok" }
