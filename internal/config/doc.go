// Package config loads, normalizes, and validates vidfetch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PORT and OPENROUTER_API_KEY. The Config type centralizes every knob the
// server and CLI need, so download roots, tool timeouts, and backend
// credentials are discovered in one pass.
package config
