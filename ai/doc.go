// Copyright 2025 Blessan Alex
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package ai provides the AI services used by the ingestion pipeline.
//
// It defines the interfaces the rest of malrag depends on:
//
//   - Embedder: vector embeddings for text
//   - EntityExtractor: named entities for a chunk of text
//   - Completer: single-prompt text completion
//   - Transcriber: speech to text for uploaded audio
//
// Provider implements all four. Every call runs through an invoke.Invoker,
// so each attempt uses the current credential and a failure rotates to the
// next one. A Backend builds the langchaingo client for one credential and
// Provider caches the result per credential.
//
// # Implementation Packages
//
//   - ai/gemini: Google Gemini through langchaingo googleai
//   - ai/openai: OpenAI-compatible APIs (OpenAI, Ollama, vLLM)
//   - ai/mock: deterministic backend for tests
package ai
