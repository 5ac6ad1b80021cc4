// Package fileutil finds MED-PC data files on disk.
//
// MED-PC names its output after the run (for example
// "!2019-01-30_09h15m.Subject rat12"), often without any extension, so the
// scanner selects by glob and excludes known non-data extensions instead of
// requiring one. Files written by mpcdata itself (workbooks, reports, the
// catalog database, lock files) are excluded by DefaultScanOptions, which
// lets an export directory sit inside the data directory.
//
// Directories starting with "." are always skipped. Non-fatal walk errors are
// collected in ScanResult.Errors and the scan continues.
package fileutil
