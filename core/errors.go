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


package core

import "errors"

// Domain errors
var (
	// ErrJobNotFound indicates no job exists for the requested ID.
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidJob indicates a Job failed validation.
	ErrInvalidJob = errors.New("invalid job")

	// ErrInvalidStatus indicates an unknown JobStatus value.
	ErrInvalidStatus = errors.New("invalid job status")

	// ErrInvalidStep indicates an unknown JobStep value.
	ErrInvalidStep = errors.New("invalid job step")

	// ErrProgressOutOfRange indicates progress outside 0-100.
	ErrProgressOutOfRange = errors.New("progress out of range")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrEmptyContent indicates chunk text is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")
)
