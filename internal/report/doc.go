// Package report renders human-readable run summaries and forwards training
// progress to observers. Nothing in this package may fail a run: callers log
// reporting errors and carry on.
package report
