// Package fileutil finds input files on disk for the prep command.
//
// ScanDirectory walks a data directory with extension, glob and depth
// filters and returns sorted absolute paths, so the order spectrograms are
// made and split is the same on every run. Hidden files and directories are
// always skipped; prep's own temp files start with a dot.
//
// Source discovery for a data directory of .cbin songs kept one bird per
// subdirectory:
//
//	result, err := fileutil.ScanDirectory(dataDir, fileutil.ScanOptions{
//	    Extensions: []string{"cbin"},
//	    Recursive:  true,
//	    MaxDepth:   2,
//	})
//
// Locating a companion annotation file:
//
//	path, err := fileutil.FindOne(dataDir, "*annotation*.mat")
//
// Non-fatal errors such as an unreadable subdirectory are collected in
// ScanResult.Errors and the walk continues. A missing root, a root that is
// not a directory and a malformed glob are returned as errors.
package fileutil
