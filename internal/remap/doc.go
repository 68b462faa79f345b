// Package remap rewrites HMIS datasets so every personal id resolves to its
// canonical identity.
//
// Each input file is copied to <stem><suffix>.csv in the output directory with
// a new leading column holding the canonical id; the original columns follow
// untouched. Files are independent, so a Remapper rewrites them in parallel
// with a bounded number of workers while each file's rows keep their order.
package remap
