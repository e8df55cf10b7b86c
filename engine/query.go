package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Query modes. Naive ranks chunks by vector similarity alone; the other
// modes also extract entities from the question and favour chunks that
// mention them.
const (
	ModeNaive  = "naive"
	ModeLocal  = "local"
	ModeGlobal = "global"
	ModeHybrid = "hybrid"
)

const (
	defaultQueryLimit = 5
	entityBoost       = 0.1
)

// QueryOptions controls retrieval.
type QueryOptions struct {
	Mode        string  // default hybrid
	Limit       int     // chunks to retrieve, default 5
	MinScore    float32 // minimum cosine similarity
	OnlyContext bool    // return the retrieved context without answering
}

// Source is a retrieved chunk as returned to callers.
type Source struct {
	Source   string  `json:"source"`
	Position int     `json:"position"`
	Score    float32 `json:"score"`
	Text     string  `json:"text"`
}

// Answer is the result of a query.
type Answer struct {
	Answer  string   `json:"answer,omitempty"`
	Context string   `json:"context"`
	Sources []Source `json:"sources"`
}

const answerPrompt = `You are answering questions about documents the user has uploaded.
Answer the question using only the context below. If the context does not contain the
answer, say that you do not know.

Context:
%s

Question: %s`

// Query answers question from the indexed chunks.
func (e *Engine) Query(ctx context.Context, question string, opts QueryOptions) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuery
	}
	if opts.Mode == "" {
		opts.Mode = ModeHybrid
	}
	switch opts.Mode {
	case ModeNaive, ModeLocal, ModeGlobal, ModeHybrid:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, opts.Mode)
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultQueryLimit
	}

	vector, err := e.embedder.EmbedText(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	// Over-fetch so entity boosting can reorder beyond the first page.
	fetch := opts.Limit
	if opts.Mode != ModeNaive {
		fetch *= 3
	}
	matches, err := e.index.FindSimilar(ctx, vector, opts.MinScore, fetch)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	sources := make([]Source, len(matches))
	for i, m := range matches {
		sources[i] = Source{
			Source:   m.Chunk.Source,
			Position: m.Chunk.Position,
			Score:    m.Score,
			Text:     m.Chunk.Text,
		}
	}

	if opts.Mode != ModeNaive && e.entities && len(matches) > 0 {
		extracted, err := e.extractor.ExtractEntities(ctx, question)
		if err != nil {
			e.logger.Warn("entity extraction for query failed, using similarity only", "err", err)
		} else {
			names := make(map[string]bool, len(extracted))
			for _, x := range extracted {
				names[strings.ToLower(x.Name)] = true
			}
			for i, m := range matches {
				for _, ent := range m.Chunk.Entities {
					if names[strings.ToLower(ent.Name)] {
						sources[i].Score += entityBoost
					}
				}
			}
			slices.SortStableFunc(sources, func(a, b Source) int {
				switch {
				case a.Score > b.Score:
					return -1
				case a.Score < b.Score:
					return 1
				}
				return 0
			})
		}
	}
	if len(sources) > opts.Limit {
		sources = sources[:opts.Limit]
	}

	var contextText strings.Builder
	for i, s := range sources {
		if i > 0 {
			contextText.WriteString("\n\n---\n\n")
		}
		fmt.Fprintf(&contextText, "[%s #%d]\n%s", s.Source, s.Position, s.Text)
	}

	answer := &Answer{Context: contextText.String(), Sources: sources}
	if opts.OnlyContext {
		return answer, nil
	}

	answer.Answer, err = e.completer.Complete(ctx, fmt.Sprintf(answerPrompt, answer.Context, question))
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}
	return answer, nil
}
