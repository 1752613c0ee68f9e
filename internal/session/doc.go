// Package session implements the study-session engine: a single-writer state
// machine over one live session's cards, answers, streak, rewards, and
// elapsed time.
//
// The engine applies learner actions synchronously in memory. Its only
// asynchronous boundary is persistence: an Autosaver pushes dirty snapshots
// on a fixed interval, and only the terminal Complete/Abandon transitions
// require persistence to succeed before they take effect. Clocks and RNGs
// are injected so every transition is reproducible under test.
package session
