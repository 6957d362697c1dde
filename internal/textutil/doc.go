// Package textutil provides small text helpers shared by the download and
// caption pipelines: file name sanitization for user-supplied titles, token
// normalization for log-friendly labels, and a generic conditional helper.
package textutil
