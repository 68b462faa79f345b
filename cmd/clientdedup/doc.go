// Command clientdedup resolves duplicate client records in an HMIS export and
// rewrites every dataset of the export under the canonical personal ids.
//
// Subcommands:
//
//	run       resolve duplicates and write remapped datasets
//	analyze   print the field-agreement matrix used to tune the rules
//	twins     print the twin census over admitted anchors
//	config    create, validate or show the configuration
package main
