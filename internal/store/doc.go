// Package store defines the persistence interfaces the study engine and its
// host service depend on, along with shared store errors and transaction
// helpers. Concrete implementations live under internal/platform.
package store
