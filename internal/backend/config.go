package backend

import (
	"fmt"
	"strings"

	"shelterstats/internal/config"
	"shelterstats/internal/sheets/google"
)

// FromAppConfig converts the application config to source config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	sourceType := SourceType(appConfig.DataSource)
	if !sourceType.IsValid() {
		return Config{}, fmt.Errorf("invalid source type in config: %s", appConfig.DataSource)
	}

	return Config{
		Type: sourceType,

		Google: google.Options{
			SpreadsheetID: appConfig.GoogleSpreadsheetID,
			Range:         appConfig.GoogleSheetsRange,
			Credentials: google.Credentials{
				JSON:       appConfig.GoogleServiceAccountJSON,
				File:       appConfig.GoogleServiceAccountFile,
				Email:      appConfig.GoogleServiceAccountEmail,
				PrivateKey: appConfig.GooglePrivateKey,
			},
			Timeout: appConfig.SheetsTimeout,
		},

		ProxyURL: appConfig.SheetsProxyURL,
		Timeout:  appConfig.SheetsTimeout,

		FallbackFile:  appConfig.FallbackFile,
		FallbackSheet: appConfig.FallbackSheet,

		MemorySeedFile: appConfig.MemorySeedFile,
	}, nil
}

// Validate validates the source configuration. Incomplete Google or proxy
// settings are not errors here: those sources fail per read instead.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid source type: %s", c.Type)
	}

	if c.Type == FileSource && strings.TrimSpace(c.FallbackFile) == "" {
		return fmt.Errorf("fallback file path is required for file source")
	}

	return nil
}

// GetSourceTypes returns all valid source types
func GetSourceTypes() []SourceType {
	return []SourceType{SheetsSource, ProxySource, FileSource, MemorySource}
}

// GetSourceTypeStrings returns all valid source type strings
func GetSourceTypeStrings() []string {
	types := GetSourceTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
