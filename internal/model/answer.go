package model

import "time"

// Citation ties an answer back to one dataset actually touched by the
// query plans behind it. Citations are unique by dataset title.
type Citation struct {
	DatasetTitle    string `json:"dataset_title"`
	ResourceLocator string `json:"resource_locator"`
	Publisher       string `json:"publisher"`
	QuerySummary    string `json:"query_summary"`
	Status          string `json:"status"`
}

// ProvenanceRecord is the audit artifact for one request. It is created
// once, immutable after creation, and handed to the audit sink.
type ProvenanceRecord struct {
	RequestID    string     `json:"request_id"`
	QueryTexts   []string   `json:"query_texts"`
	DatasetsUsed []Citation `json:"datasets_used"`
	Timestamp    time.Time  `json:"timestamp"`
}

// Answer is the sole contract the HTTP layer and UI depend on. Terminal
// errors still fill this shape, with empty results and citations.
type Answer struct {
	RequestID         string            `json:"request_id"`
	AnswerText        string            `json:"answer_text"`
	StructuredResults ResultSet         `json:"structured_results"`
	Citations         []Citation        `json:"citations"`
	Provenance        *ProvenanceRecord `json:"provenance,omitempty"`
	ErrorKind         ErrorKind         `json:"error_kind,omitempty"`
	LiveFallback      bool              `json:"live_fallback,omitempty"`
}
