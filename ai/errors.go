package ai

import "errors"

var (
	// ErrEmptyAudio is returned when transcription is asked for zero bytes.
	ErrEmptyAudio = errors.New("ai: audio is empty")

	// ErrNoChoices is returned when a model response carries no choices.
	ErrNoChoices = errors.New("ai: model returned no choices")
)
