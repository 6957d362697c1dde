// Package staging owns the per-job directories under the download root.
//
// Every job gets a fresh directory named by a random UUID. ResolveFile is the
// single gate between client-supplied path fragments and the filesystem, and
// CleanStale reclaims directories no job record accounts for.
package staging
