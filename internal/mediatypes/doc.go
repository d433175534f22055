// Package mediatypes holds the records shared by every stage of an audit:
// ImageInfo, FileGroup, FileError and ScanResult, plus the grouping mode
// selector and extension helpers.
//
// It has no dependencies beyond the standard library so that the cache,
// scanner, grouping, report and CLI packages can all import it without
// cycles.
//
// # Grouping modes
//
//	mediatypes.ModeDuplicateName // files sharing a base name
//	mediatypes.ModeDay           // files sharing a capture day
//	mediatypes.ModeSimilar       // perceptual hash clusters ("similiar")
//	mediatypes.ModeAll           // everything
//
// # Extensions
//
// Extension matching is case insensitive:
//
//	exts := mediatypes.NormalizeExtensions([]string{"JPG", ".png"})
//	mediatypes.HasExtension("IMG_0001.Jpg", exts) // true
package mediatypes
