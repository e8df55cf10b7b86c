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


// Package invoke runs calls against external AI providers with bounded
// retries and credential rotation.
//
// Each attempt receives the pool's current credential. A failed attempt,
// including one cut short by the per-attempt timeout, rotates the pool and
// the call is retried after a fixed delay until the attempt budget is spent.
// The invoker knows nothing about the provider; callers pass a function
// that performs exactly one attempt.
//
// Basic usage:
//
//	inv, err := invoke.New(pool, invoke.WithDelay(time.Second))
//	vec, err := invoke.Do(ctx, inv, "embed 12 chars", 3,
//	    func(ctx context.Context, key string) ([]float32, error) {
//	        return client(key).EmbedQuery(ctx, text)
//	    })
//
// When every attempt fails the returned error is an *ExhaustedError that
// wraps the last attempt's error.
package invoke
