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


// Package engine turns raw document text into indexed, queryable chunks.
//
// Ingest runs four phases in order: chunking, embedding, entity extraction
// and indexing. Before each phase it calls the caller's StageFunc and waits
// for it to return, which lets the ingestion pipeline publish progress that
// is visible to pollers before the work it describes begins.
//
// Query embeds a question, retrieves the most similar chunks and asks the
// completion model to answer from them.
package engine
