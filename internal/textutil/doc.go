// Package textutil provides the placeholder template renderer shared by path
// naming and tag generation, plus filename sanitization.
//
// Templates use {name} placeholders resolved against a string mapping; {{ and
// }} produce literal braces. Unknown placeholders are errors rather than
// silently rendered blanks, so a typo in a rule surfaces before anything is
// written to disk.
package textutil
