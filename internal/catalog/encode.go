package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/metagen/internal/errors"
)

// Format is a catalog serialization format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", errors.NewValidationError(errors.ErrCodeInvalidCatalog,
			fmt.Sprintf("unsupported catalog format %q (expected json or yaml)", s))
	}
}

// FormatFromPath guesses the format from a file extension, defaulting to
// JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Encode writes records to w. JSON output is indented by two spaces, does
// not escape HTML and ends with a newline.
func Encode(w io.Writer, records []ComponentMeta, format Format) error {
	records = normalize(records)

	switch format {
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(records); err != nil {
			return err
		}
		return encoder.Close()
	case FormatJSON, "":
		encoder := json.NewEncoder(w)
		encoder.SetEscapeHTML(false)
		encoder.SetIndent("", "  ")
		return encoder.Encode(records)
	default:
		_, err := ParseFormat(string(format))
		return err
	}
}

// Decode reads a catalog in either format. YAML is a superset of JSON, so
// the YAML decoder serves both.
func Decode(r io.Reader) ([]ComponentMeta, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeReadFailed, "reading catalog")
	}

	var records []ComponentMeta
	if len(bytes.TrimSpace(data)) > 0 && bytes.TrimSpace(data)[0] == '[' {
		err = json.Unmarshal(data, &records)
	} else {
		err = yaml.Unmarshal(data, &records)
	}
	if err != nil {
		return nil, errors.NewParseError(errors.ErrCodeInvalidCatalog, "decoding catalog", err)
	}
	return normalize(records), nil
}

// ReadFile loads a catalog file from fsys.
func ReadFile(fsys afero.Fs, path string) ([]ComponentMeta, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeReadFailed, "opening catalog").WithFile(path)
	}
	defer f.Close()

	records, err := Decode(f)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, errors.ErrCodeInvalidCatalog, "loading catalog").WithFile(path)
	}
	return records, nil
}

// WriteFile encodes records and replaces path with the result. Nothing is
// written if encoding fails.
func WriteFile(fsys afero.Fs, path string, records []ComponentMeta, format Format) error {
	var buf bytes.Buffer
	if err := Encode(&buf, records, format); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return errors.WrapIO(err, errors.ErrCodeWriteFailed, "creating output directory").WithFile(dir)
	}

	tmp, err := afero.TempFile(fsys, dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.WrapIO(err, errors.ErrCodeWriteFailed, "creating temporary file").WithFile(path)
	}
	tmpName := tmp.Name()

	_, werr := tmp.Write(buf.Bytes())
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		_ = fsys.Remove(tmpName)
		return errors.WrapIO(errors.CombineErrors(werr, cerr), errors.ErrCodeWriteFailed, "writing catalog").WithFile(path)
	}

	if err := fsys.Rename(tmpName, path); err != nil {
		_ = fsys.Remove(tmpName)
		return errors.WrapIO(err, errors.ErrCodeWriteFailed, "replacing catalog").WithFile(path)
	}
	return nil
}

// normalize returns a copy of records in which every record has a non-nil
// dependency list, so both encodings write [] rather than null.
func normalize(records []ComponentMeta) []ComponentMeta {
	out := make([]ComponentMeta, len(records))
	copy(out, records)
	for i := range out {
		if out[i].Dependencies == nil {
			out[i].Dependencies = []string{}
		}
	}
	return out
}
