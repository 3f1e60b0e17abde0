package config

// Default configuration values.
const (
	DefaultDialect = "sqlite"
	DefaultOutput  = OutputText
)

// defaults returns the lowest configuration layer.
func defaults() map[string]any {
	return map[string]any{
		"dialect": DefaultDialect,
		"output":  DefaultOutput,
		"verbose": false,
	}
}
