// Package record defines the immutable client row model shared by the
// matching, clustering, and remapping stages.
//
// Raw HMIS fields are kept verbatim for passthrough output, while quality codes
// are lifted into the Quality enum and dates are parsed once at construction so
// downstream comparisons never re-interpret strings.
package record
