// Package preflight provides readiness checks for the filesystem paths,
// endpoints, and binaries radiograb depends on.
//
// The run command calls RunAll before fetching anything and aborts when the
// download directory is unusable. "radiograb check" prints every result,
// including the external binaries reported by CheckSystemDeps.
package preflight
