// Package language validates caption language codes and resolves their
// English display names.
//
// yt-dlp reports caption languages as BCP 47 tags with site-specific
// variants ("en-orig", "pt-BR", "zh-Hans"). Normalize accepts those while
// rejecting anything whose base subtag is not an ISO 639 code, so request
// parameters can be checked before they reach an external tool.
package language
