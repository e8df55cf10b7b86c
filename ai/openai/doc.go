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


// Package openai provides an ai.Backend for OpenAI-compatible APIs.
//
// Besides OpenAI itself this covers local servers such as Ollama, LocalAI
// or vLLM. Each credential from the pool is sent as the bearer token.
//
// # Usage
//
//	cfg := ai.NewConfig(
//	    ai.WithProvider(ai.ProviderOpenAI),
//	    ai.WithHost("http://localhost:11434"), // /v1 added automatically
//	    ai.WithCompletionModel("qwen2.5:3b"),
//	    ai.WithEmbeddingModel("embeddinggemma"),
//	)
//	backend, err := openai.NewBackend(cfg)
//	provider, err := ai.NewProvider(cfg, backend, inv)
package openai
