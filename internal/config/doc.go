// Package config loads the generator configuration from domainer.yaml or
// domainer.toml, found by walking up from the working directory.
package config
