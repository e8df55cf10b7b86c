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


// Package credentials holds the ordered set of API credentials used to
// authenticate against external AI providers.
//
// A Pool exposes exactly one current credential at a time and rotates
// through the set circularly when a caller reports a failure. The set is
// fixed at construction; rotation only moves the cursor.
//
// Basic usage:
//
//	pool := credentials.NewPool(credentials.ParseList(os.Getenv("MALRAG_API_KEYS")))
//	key, ok := pool.Current()
//	if !ok {
//	    return credentials.ErrNoCredential
//	}
//	// ... call provider with key, on failure:
//	pool.Rotate()
//
// Pool is safe for concurrent use.
package credentials
