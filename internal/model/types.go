package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord summarizes one completed evolution run. The population
// itself is never persisted; only run-level artifacts are.
type RunRecord struct {
	VersionedRecord
	ID             string  `json:"id"`
	Domain         string  `json:"domain"`
	Seed           int64   `json:"seed"`
	PopulationSize int     `json:"population_size"`
	Generations    int     `json:"generations"`
	Evaluations    int64   `json:"evaluations"`
	BestFitness    float64 `json:"best_fitness"`
	Champion       string  `json:"champion"`
	CreatedAtUTC   string  `json:"created_at_utc"`
}

// GenerationStats is the per-generation diagnostic row of a run.
type GenerationStats struct {
	Generation  int     `json:"generation"`
	BestFitness float64 `json:"best_fitness"`
	MeanFitness float64 `json:"mean_fitness"`
	MinFitness  float64 `json:"min_fitness"`
}
