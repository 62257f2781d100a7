// Package upstream talks to the third-party organisation API. It issues one
// GET per call, validates that a successful body is JSON and folds every
// kind of failure into *Failure.
package upstream
