// Package llm provides an OpenRouter chat client for image identification and
// specification lookups.
//
// # Requests
//
// A Request carries an optional system prompt, a user prompt, an optional
// inline image, and an optional JSON schema. Images are sent as data URLs in
// an image_url content part, which OpenRouter forwards to vision-capable
// models. When a schema is set the request asks for json_schema output;
// otherwise JSON mode uses json_object.
//
// # Providers
//
// Client talks to any OpenAI-compatible chat completions endpoint over plain
// HTTP. The openai and anthropic sibling packages implement the same
// Completer interface on top of the vendor SDKs.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty completions, and
// network timeouts with exponential backoff (base 1s, max 10s, up to 3
// attempts by default). Context cancellation aborts retries immediately, so
// callers bound the total time with a context deadline.
package llm
