package domain

// KeyPrefix namespaces all keys this service writes to the store.
const KeyPrefix = "pharmaninja:"

// VectorDim is the embedding dimension of the index.
const VectorDim = 1536

// Lang is a coarse content language tag.
type Lang string

const (
	// LangEN marks English content.
	LangEN Lang = "EN"
	// LangAR marks Arabic content.
	LangAR Lang = "AR"
)

// Metadata is the per-record payload persisted alongside the vector.
type Metadata struct {
	Text    string
	Source  string // source document name, e.g. "pharm101.pdf"
	Lang    Lang
	Stage   string // academic stage tag, e.g. "3rd"
	Subject string
}

// Record is the persisted unit in the vector index: {id, vector, metadata}.
// A later upsert with the same ID supersedes the record.
type Record struct {
	ID     string
	Vector []float32
	Meta   Metadata
}

// Match is a single query hit, ranked by descending similarity score.
type Match struct {
	ID    string
	Score float64
	Meta  Metadata
}

// Source is the provenance view of a Match returned to callers.
type Source struct {
	ID      string  `json:"id"`
	Score   float64 `json:"score"`
	File    string  `json:"file"`
	Lang    Lang    `json:"lang"`
	Stage   string  `json:"stage,omitempty"`
	Subject string  `json:"subject,omitempty"`
}

// ToSource converts a match into its provenance view.
func (m Match) ToSource() Source {
	return Source{
		ID:      m.ID,
		Score:   m.Score,
		File:    m.Meta.Source,
		Lang:    m.Meta.Lang,
		Stage:   m.Meta.Stage,
		Subject: m.Meta.Subject,
	}
}
