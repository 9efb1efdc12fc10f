// Package resolver turns artifact definitions into concrete texture and
// model files plus the normalized references the dispatch merge consumes.
package resolver
