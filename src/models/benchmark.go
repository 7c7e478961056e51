package models

// -----------------------------------------------------------------------------

// MBenchmark is bootstrap metadata for one tracked benchmark symbol.
// The list is loaded once at startup from configuration.
type MBenchmark struct {
	Symbol      string `yaml:"symbol" json:"symbol"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}
