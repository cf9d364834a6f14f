// Package matcher evaluates catalog records against subscription rules.
//
// FindMatches scans every record once per rule and collects positive
// matches into a MatchSet keyed by rule name. A record is enriched with its
// detail page the first time any rule matches it; later matches reuse the
// result. Membership in a rule's group is keyed by broadcast id, so feeding
// the same records twice never produces duplicates.
package matcher
