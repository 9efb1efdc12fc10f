// Package pipeline orchestrates generator modules: discovery, priority
// ordering, strictly sequential execution, and the per-run staging queues
// generators hand artifact definitions through.
package pipeline
