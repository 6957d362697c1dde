// Package jobs persists the lifecycle of download and caption jobs in SQLite.
//
// Each job owns exactly one directory under the download root. The Store
// records status transitions (created, running, complete, failed) so the API
// can report on a job and the retention sweeper can reclaim expired ones.
// The Manager couples rows to directories: Begin allocates both, Complete and
// Fail close the job out, Remove and Sweep delete directory first, then row.
//
// Schema changes add a new numbered file under migrations/.
package jobs
