// Package acquire turns matched broadcasts into files on disk.
//
// Each (rule, broadcast) pair runs the same sequence: name the target from
// the rule templates, download the stream unless it is already present,
// convert to HE-AAC, tag the converted file when the download was fresh, and
// finally drop the original when the rule does not keep it. Failures are
// recorded against the item and never stop the batch; dry runs log every
// decision as would_* and leave the filesystem untouched.
package acquire
