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


// Package gemini provides an ai.Backend for Google's Gemini API.
//
// One googleai client is built per credential; the ai.Provider caches them
// and rotates between them through the invoker.
//
// # Usage
//
//	cfg := ai.NewConfig()
//	backend, err := gemini.NewBackend(cfg)
//	inv, err := invoke.New(pool, invoke.WithName(backend.Name()))
//	provider, err := ai.NewProvider(cfg, backend, inv)
//	text, err := provider.Transcribe(ctx, audio, "audio/mpeg")
package gemini
