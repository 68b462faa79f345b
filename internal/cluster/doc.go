// Package cluster groups client records that refer to the same person.
//
// Records are admitted in input order. Each incoming record is compared with
// the anchors admitted before it and joins the first group whose anchor
// matches; otherwise it becomes a new anchor. Groups are then resolved to a
// representative by majority date of birth, and BuildIDMap flattens them into
// the personal id rewrite table consumed by the remap stage.
package cluster
