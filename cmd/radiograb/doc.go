// Command radiograb downloads Ö1 on-demand broadcasts that match the
// subscription rules in its configuration, converts them to HE-AAC, and tags
// the result.
//
// Running radiograb without a subcommand is the same as `radiograb run`.
// Other subcommands inspect the catalog (list), the compiled rules (rules),
// the environment (check), the configuration (config), and the fetch cache
// (cache).
package main
