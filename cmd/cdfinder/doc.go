// Command cdfinder looks up the DAC and laser pickup of vintage CD players.
//
// Subcommands search the catalog by text, identify a player from a photo,
// capture a photo from a camera command, ask the AI provider for a model the
// catalog lacks, and run an interactive session. Configuration is loaded once
// per invocation from --config, ~/.config/cdfinder/config.toml, or
// ./cdfinder.toml.
package main
