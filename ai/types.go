package ai

// EntityTypes defines the valid categories for extracted entities.
var EntityTypes = []string{
	"concept",
	"date",
	"event",
	"law",
	"location",
	"organization",
	"person",
	"product",
	"technology",
}

// TranscriptionPrompt instructs the model to return only the spoken text.
const TranscriptionPrompt = "Transcribe this audio file strictly. Output only the transcription text."
