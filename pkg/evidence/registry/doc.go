// Package registry implements the control registry: the static, immutable
// catalog mapping (framework, control id) pairs to control metadata.
//
// The registry is populated once at process start from the built-in
// catalogs, local YAML catalog files, or a git-hosted catalog repository,
// then sealed before the process enters serving state. After sealing,
// registration fails and lookups are the only operation, which guarantees
// every exported evidence record cites a stable, auditable control
// definition.
//
// # Catalog sources
//
//   - BuiltinControls: GDPR and SOC 2 controls compiled into the binary
//   - LoadPath / LoadCatalogFile / LoadCatalogDir: YAML catalog files
//   - GitSource: catalogs cloned from a git repository, with the HEAD
//     commit recorded as CatalogVersionInfo for evidence provenance
//
// # Drift detection
//
// Catalog files changing on disk after sealing cannot affect the running
// registry. The DriftWatcher surfaces such changes as warnings and a
// callback (typically wired to a metric), so operators know a restart is
// required before the new catalog takes effect.
//
// # Usage
//
//	reg := registry.New()
//	if err := reg.RegisterAll(registry.BuiltinControls()); err != nil {
//	    log.Fatal(err)
//	}
//	if err := registry.LoadPath(reg, "catalogs/"); err != nil {
//	    log.Fatal(err)
//	}
//	reg.Seal()
//
//	control, err := reg.Lookup("gdpr", registry.GDPRArt15)
package registry
