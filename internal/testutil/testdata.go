package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"

	"github.com/edgeflare/smtconv/pkg/connect"
)

// LoadJSON reads and unmarshals a JSON file next to this package. If target is provided, it attempts to unmarshal the JSON into the target struct.
func LoadJSON(filename string, target ...any) (map[string]any, error) {
	var result map[string]any

	_, currentFile, _, _ := runtime.Caller(0)
	dir := filepath.Dir(currentFile)

	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(data, &result)
	if err != nil {
		return nil, err
	}

	if len(target) > 0 && target[0] != nil {
		err = json.Unmarshal(data, target[0])
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// LoadRecord loads a record fixture. JSON numbers are decoded as float64.
func LoadRecord(filename string) (*connect.Record, error) {
	var rec connect.Record
	if _, err := LoadJSON(filename, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
