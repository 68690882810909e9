// Package portfolio reads the persisted holdings record.
package portfolio

import (
	"encoding/json"
	"fmt"
	"os"
)

// Data is the user's portfolio: symbol to share count.
type Data struct {
	Holdings map[string]float64 `json:"holdings"`
}

// Loader reads a holdings file once per run.
type Loader struct {
	path string
}

// NewLoader creates a loader for the given holdings file.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads and parses the holdings record. On any failure it returns
// empty holdings together with the error; callers treat empty holdings as
// "no portfolio data available", never as fatal.
func (l *Loader) Load() (Data, error) {
	empty := Data{Holdings: map[string]float64{}}
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return empty, fmt.Errorf("read portfolio %s: %w", l.path, err)
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return empty, fmt.Errorf("parse portfolio %s: %w", l.path, err)
	}
	if data.Holdings == nil {
		data.Holdings = map[string]float64{}
	}
	return data, nil
}
