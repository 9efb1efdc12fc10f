// Package vanilla fetches and caches the version-keyed reference dataset
// used to look up default fallback models for category types.
package vanilla
