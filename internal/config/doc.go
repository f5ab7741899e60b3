// Package config loads, normalizes, and validates cdfinder configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SUPABASE_URL, SUPABASE_ANON_KEY, and API_KEY. A .env file in the working
// directory is consulted before the environment is read, matching how the
// catalog credentials are usually distributed.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical backend names, and clear validation errors.
package config
