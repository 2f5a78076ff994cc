package model

import "fmt"

// SchemaError reports that a required identity field is absent from a
// source. Fatal for the source, never for the whole run.
type SchemaError struct {
	Source string // Source tag
	Field  string // Missing unified field
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("source %s: required field %q missing from every row", e.Source, e.Field)
}

// ProviderError reports an external provider failure (generative text or
// data source). The assembler responds by degrading, never aborting.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
