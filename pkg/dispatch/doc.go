// Package dispatch folds resolved artifact references into persisted
// per-type model override tables with stable, collision-aware thresholds.
package dispatch
