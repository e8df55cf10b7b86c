// Package mock provides test doubles and an offline backend for the ai package.
//
// The Mock* types implement single ai interfaces with injectable behavior
// and call counting. Backend implements ai.Backend with deterministic,
// network-free responses and scripted per-credential failures, so the
// full provider stack (including credential rotation) can run in tests
// and in offline mode.
package mock
