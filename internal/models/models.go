package models

// Document is one embeddable chunk of a corpus file.
type Document struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Category  string `json:"category,omitempty"`
	StartLine int32  `json:"start_line"`
	EndLine   int32  `json:"end_line"`
	Content   string `json:"content"`
}

type SemanticHit struct {
	Document Document `json:"document"`
	Score    float32  `json:"score"`
}

// EmbedResult is the response body of /embed-documents.
type EmbedResult struct {
	Embeddings [][]float32 `json:"embeddings"`
	Model      string      `json:"model"`
}

// Index progress and stages
type IndexStage string

const (
	IndexStageScan  IndexStage = "scan"
	IndexStageParse IndexStage = "parse"
	IndexStageEmbed IndexStage = "embed"
	IndexStageDone  IndexStage = "done"
)

// IndexProgress represents streaming progress updates for indexing
type IndexProgress struct {
	Stage          IndexStage
	TotalFiles     int
	ParsedFiles    int
	TotalChunks    int
	EmbeddedChunks int
	CurrentFile    string
	Message        string
	Percent        float32
}

// WithPercent fills Percent: parsing covers the first half, embedding the second.
func (p IndexProgress) WithPercent() IndexProgress {
	if p.Stage == IndexStageDone {
		p.Percent = 100
		return p
	}
	var pct float32
	if p.TotalFiles > 0 {
		pct += 50 * float32(p.ParsedFiles) / float32(p.TotalFiles)
	}
	if p.TotalChunks > 0 {
		pct += 50 * float32(p.EmbeddedChunks) / float32(p.TotalChunks)
	}
	p.Percent = pct
	return p
}
