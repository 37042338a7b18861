package vectordb

import "time"

// Config holds Qdrant connection and collection settings.
type Config struct {
	Host       string        `mapstructure:"host"`
	Port       int           `mapstructure:"port"`
	Collection string        `mapstructure:"collection"`
	TopK       int           `mapstructure:"top_k"`
	Threshold  float64       `mapstructure:"threshold"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// Chunk is an ingested search-result record. Research chunks are tagged with
// the research task that produced them so writing tasks can retrieve scoped
// material later.
type Chunk struct {
	ResearchTaskID string `json:"research_task_id"`
	RunID          string `json:"run_id"`
	URL            string `json:"url"`
	Title          string `json:"title"`
	Text           string `json:"text"`
}

// ScoredChunk is a retrieval hit.
type ScoredChunk struct {
	Chunk
	Score float64 `json:"score"`
}
