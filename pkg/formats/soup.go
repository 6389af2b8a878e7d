package formats

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Soup errors.
var (
	ErrMissingVectors = errors.New("mesh record has no \"v\" field")
	ErrInvalidRecord  = errors.New("invalid mesh record")
)

// Soup is an ordered triangle soup: triangles of vertices of coordinates.
// Shapes are not validated here; a triangle may hold the wrong number of
// vertices and a vertex the wrong number of coordinates.
type Soup [][][]float64

// TriangleDecodeError reports a triangle whose JSON could not be decoded as
// a list of coordinate lists.
type TriangleDecodeError struct {
	Triangle int
	Err      error
}

func (e *TriangleDecodeError) Error() string {
	return fmt.Sprintf("triangle %d: %v", e.Triangle, e.Err)
}

func (e *TriangleDecodeError) Unwrap() error {
	return e.Err
}

// soupRecord is the on-disk record layout.
type soupRecord struct {
	V *[]json.RawMessage `json:"v"`
}

// ReadSoup decodes a triangle-soup record from r.
func ReadSoup(r io.Reader) (Soup, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseSoup(data)
}

// ParseSoup decodes a triangle-soup record from a byte slice.
func ParseSoup(data []byte) (Soup, error) {
	var rec soupRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if rec.V == nil {
		return nil, ErrMissingVectors
	}

	soup := make(Soup, len(*rec.V))
	for i, raw := range *rec.V {
		if err := json.Unmarshal(raw, &soup[i]); err != nil {
			return nil, &TriangleDecodeError{Triangle: i, Err: err}
		}
	}
	return soup, nil
}

// LoadSoup reads a triangle-soup record from a file.
func LoadSoup(path string) (Soup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSoup(data)
}

// WriteSoup encodes a triangle soup as a {"v": [...]} record.
func WriteSoup(w io.Writer, soup Soup) error {
	return json.NewEncoder(w).Encode(struct {
		V Soup `json:"v"`
	}{soup})
}
