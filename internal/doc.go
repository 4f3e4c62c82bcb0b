// Package internal contains the core implementation packages for metagen.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - declaration: The declaration tree model and its depth-bounded search
//   - tags: Resolution of @tag values on a declaration's comment
//   - slug: Kebab-case identifiers for component names
//   - imports: Component imports found in TypeScript sources
//   - source: File reading behind an interface, with an LRU cache
//   - catalog: Assembly, encoding and decoding of catalog records
//   - build: The generation pipeline from declarations to output file
//   - registry: The in-memory catalog with dependency analysis
//   - watcher: Debounced file system monitoring with .gitignore support
//   - server: HTTP and websocket access to the catalog
//   - config: Viper-backed configuration with validation
//   - errors: Structured error types and check findings
//   - logging: Structured logging on log/slog
//   - version: Build metadata stamped at link time
//
// # Inter-Package Communication
//
//   - The build pipeline publishes every generated catalog to the registry
//   - The registry notifies its watchers, which the server forwards to
//     websocket clients
//   - The watcher triggers the build pipeline after each batch of changes
package internal
