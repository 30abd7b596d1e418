package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// readInput reads content from a file or stdin
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == InputSourceStdin {
		return io.ReadAll(stdin)
	}

	return os.ReadFile(path)
}

// writeOutput writes content to stdout or replaces a file atomically,
// so a failed render never leaves a half-written output behind.
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == FlagDefaultOutput {
		_, err := stdout.Write(data)
		return err
	}

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return err
	}
	return os.Chmod(path, FilePermissions)
}

// loadData reads the render data from a file or an inline string.
// With no data an empty map is returned.
func loadData(inline, filePath, format string) (map[string]any, error) {
	var raw []byte

	switch {
	case filePath != "":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, err
		}
		raw = data
		if format == DataFormatAuto {
			format = formatFromExt(filePath)
		}
	case inline != "":
		raw = []byte(inline)
	default:
		return make(map[string]any), nil
	}

	return decodeData(raw, format)
}

func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtYAML, ExtYML:
		return DataFormatYAML
	}
	return DataFormatJSON
}

// decodeData decodes JSON or YAML into a map. auto tries JSON first and
// falls back to YAML.
func decodeData(raw []byte, format string) (map[string]any, error) {
	var result map[string]any

	switch format {
	case DataFormatJSON:
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, err
		}
	case DataFormatYAML:
		if err := yaml.Unmarshal(raw, &result); err != nil {
			return nil, err
		}
	case DataFormatAuto:
		if err := json.Unmarshal(raw, &result); err != nil {
			result = nil
			if yerr := yaml.Unmarshal(raw, &result); yerr != nil {
				return nil, errors.Join(err, yerr)
			}
		}
	default:
		return nil, errors.New(ErrMsgInvalidDataFormat)
	}

	// "null" and empty documents decode to a nil map
	if result == nil {
		result = make(map[string]any)
	}
	return result, nil
}
