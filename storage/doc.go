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


// Package storage provides the storage abstraction layer for MalRag.
//
// This package defines repository interfaces that decouple storage implementation
// from the ingestion pipeline and the query path:
//
//   - DocumentRegistry: catalog of successfully ingested files
//   - ChunkIndex: embedded chunks with vector similarity search
//
// Two implementation packages exist. storage/badger keeps both the registry
// and the chunk index in an embedded BadgerDB; storage/postgres provides a
// DocumentRegistry on PostgreSQL for deployments that share the catalog.
//
// # Usage
//
//	backend, err := badger.OpenBackend("/var/lib/malrag", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	registry, err := badger.NewDocumentRepository(backend)
//	index, err := badger.NewChunkRepository(backend)
//
// Use in tests with in-memory storage:
//
//	registry, index, backend, err := badger.NewMemoryRepositories()
//
// # Serialization
//
// Records are stored as JSON. Marshal and Unmarshal helpers wrap failures
// with ErrSerializationFailed.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
