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


package badger

import "github.com/Blessan-Alex/MalRag/storage"

// NewMemoryRepositories creates in-memory document and chunk repositories for testing.
// Returns registry, index, backend, and error.
// Caller must close the backend when done.
func NewMemoryRepositories() (storage.DocumentRegistry, storage.ChunkIndex, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, nil, err
	}

	registry, err := NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, nil, err
	}

	index, err := NewChunkRepository(backend)
	if err != nil {
		registry.Close()
		backend.Close()
		return nil, nil, nil, err
	}

	return registry, index, backend, nil
}
