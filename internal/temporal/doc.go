// Package temporal indexes enrollment stays and household membership per
// personal id and detects stays that one person could not have occupied at once.
//
// The index is built once from enrollment and exit rows before matching starts
// and is read-only afterwards. Lookups for ids with no enrollment history return
// nil, and every detector treats a nil profile as "no evidence".
package temporal
