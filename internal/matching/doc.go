// Package matching decides whether two client records describe the same person.
//
// Two independent heuristics are provided. The strict rule requires a verified
// SSN match plus agreement on at least two of first name, last name, gender, and
// birth month. The lenient rule accepts either a verified SSN match or agreement
// on two of first name, last name, and date of birth, and rejects soft matches
// that disagree on too many distinguishing fields. Both rules are vetoed by the
// twin filter, by incompatible program stays, and by shared household ids.
//
// A Matcher is not safe for concurrent use; it accumulates Stats as it runs.
package matching
