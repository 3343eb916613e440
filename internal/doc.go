// Package internal contains the implementation packages of assetpipeline.
//
// # Package Organization
//
//   - assets: locating, ordering and combining sources per asset kind
//   - compile: CoffeeScript/LESS compilers, minification and the output cache
//   - config: configuration keys, defaults, loading and validation
//   - errors: the typed PipelineError and its constructors
//   - logging: structured, component-scoped logging
//   - server: HTTP routes serving combined assets
//   - version: build information
//   - watcher: debounced file system change notifications
package internal
