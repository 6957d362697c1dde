// Package download fetches one chosen format into its own job directory.
//
// Formats that lack audio are merged with the best audio stream into an mp4.
// The job row tracks the attempt from start to the located output file.
package download
