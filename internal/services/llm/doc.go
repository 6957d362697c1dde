// Package llm provides an OpenRouter-compatible chat client used to translate
// caption text.
//
// # Translation
//
// Client.Translate sends one caption line to the configured model with a
// system prompt that demands a JSON reply of the form
// {"translation": "..."}. Language codes are expanded to English display names
// in the user prompt; the "auto" source asks the model to detect the language.
//
// # Configuration
//
// Requires api_key and model, and optionally base_url, referer, title, and
// timeout_seconds. Without an api key every request fails with a
// configuration error before any network traffic.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteJSON: send system/user prompts, receive JSON response.
// Client.Translate: translate one line of text.
// Client.HealthCheck: verify API key and model availability.
//
// # Failures
//
// Requests are attempted once. HTTP 401/403 map to a configuration error,
// client timeouts to a timeout error, and undecodable replies to a parse
// error. Responses that carry the payload in delta, legacy text, or tool call
// arguments, or that wrap it in a code fence, are still accepted.
package llm
