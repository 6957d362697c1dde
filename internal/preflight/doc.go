// Package preflight provides readiness checks for the executables, directories
// and translation endpoint that vidfetch depends on.
//
// These checks run in two contexts:
//   - The server's GET /api/status reports CheckSystemDeps and
//     CheckDirectories on every call. It never contacts the translation API.
//   - The CLI "vidfetch status" command renders RunAll, optionally probing the
//     translation endpoint with one live request.
package preflight
