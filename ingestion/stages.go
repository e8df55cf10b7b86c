package ingestion

import (
	"github.com/Blessan-Alex/MalRag/core"
	"github.com/Blessan-Alex/MalRag/jobs"
)

// stageProgress is the job state published when the engine reports a stage.
type stageProgress struct {
	step     core.JobStep
	progress int
	message  string
}

// Entity extraction has no step of its own and is reported under embedding.
var engineStages = map[core.Stage]stageProgress{
	core.StageChunking:           {core.JobStepChunking, 30, "Chunking documents..."},
	core.StageEmbedding:          {core.JobStepEmbedding, 50, "Generating embeddings..."},
	core.StageExtractingEntities: {core.JobStepEmbedding, 70, "Extracting entities..."},
	core.StageIndexing:           {core.JobStepIndexing, 90, "Indexing into vector store..."},
}

func (s stageProgress) changes() []jobs.Change {
	return []jobs.Change{
		jobs.WithStep(s.step),
		jobs.WithProgress(s.progress),
		jobs.WithMessage(s.message),
	}
}

const (
	extractingProgress = 10
	extractingMessage  = "Extracting text from file..."
	chunkingProgress   = 20
	chunkingMessage    = "Chunking content..."
	panicMessage       = "internal error during processing"
)
