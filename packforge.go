// Package packforge wires the default content-package pipeline: built-in
// generators, the yaegi plugin loader, and the cached reference dataset
// client, while keeping the concrete types behind the pipeline ports.
package packforge

import (
	"github.com/goliatone/go-packforge/internal/plugins"
	"github.com/goliatone/go-packforge/pkg/config"
	"github.com/goliatone/go-packforge/pkg/generators"
	"github.com/goliatone/go-packforge/pkg/pipeline"
	"github.com/goliatone/go-packforge/pkg/vanilla"
)

// New constructs a Pipeline with the default wiring for cfg. Additional
// options are applied after the defaults, so callers can override any of
// them (logger, registry, loader).
func New(cfg config.Config, options ...pipeline.Option) *pipeline.Pipeline {
	snapshots := vanilla.NewClient(cfg.SnapshotURL, cfg.CacheDir)

	defaults := []pipeline.Option{
		pipeline.WithGenerators(
			generators.NewBlocks(),
			generators.NewItems(cfg.TargetVersion, snapshots),
		),
		pipeline.WithLoader(plugins.NewGoLoader()),
		pipeline.WithPluginDir(cfg.GeneratorsDir),
	}
	return pipeline.New(append(defaults, options...)...)
}

// NewPluginLoader exposes the yaegi-backed loader so callers composing
// their own pipeline can reuse it without importing the internal package.
func NewPluginLoader() pipeline.Loader {
	return plugins.NewGoLoader()
}
