// Package generators holds the built-in pipeline generators: blocks stages
// item-form definitions for block sources, items drains the item queue and
// drives resolution and dispatch merging.
package generators
