// Package generate sequences package generation: persist the configuration,
// fetch the catalog, score and classify, resolve conflicts, emit the
// artifact, upload it, and persist a package descriptor.
//
// Steps run one after another and are never retried. Persistence and fetch
// failures abort the call with a [*PackageGenerationError]; conflict lookup
// and artifact upload failures are logged and tolerated.
package generate
