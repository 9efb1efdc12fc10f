// Package artifact defines the source-level artifact definition format and
// the discovery of definition files on disk.
package artifact
