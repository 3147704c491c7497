package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-sellerstats/internal/sellerstats"
)

var collections = []string{"sellers", "products", "purchase_records"}

// Loader decodes sales datasets from JSON. In strict mode every element is
// validated and duplicate seller ids or SKUs are rejected.
type Loader struct {
	Strict   bool
	validate *validator.Validate
}

// NewLoader returns a Loader with its validator initialised.
func NewLoader(strict bool) *Loader {
	return &Loader{Strict: strict, validate: validator.New(validator.WithRequiredStructEnabled())}
}

// LoadFile reads and decodes the dataset stored at path.
func (l *Loader) LoadFile(path string) (*sellerstats.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return l.Decode(f)
}

// Decode parses a dataset. Errors describing the shape of the payload match
// sellerstats.ErrInvalidInput.
func (l *Loader) Decode(r io.Reader) (*sellerstats.Dataset, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	if err := checkShape(raw); err != nil {
		return nil, err
	}
	var data sellerstats.Dataset
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, invalid("decode dataset: %v", err)
	}
	if err := sellerstats.Validate(&data); err != nil {
		return nil, err
	}
	if l != nil && l.Strict {
		if err := l.Check(&data); err != nil {
			return nil, err
		}
	}
	return &data, nil
}

// Check validates every element of the dataset and rejects duplicate keys.
func (l *Loader) Check(data *sellerstats.Dataset) error {
	if err := sellerstats.Validate(data); err != nil {
		return err
	}
	v := l.validator()
	if err := v.Struct(data); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return invalid("invalid fields: %s", strings.Join(fields, ", "))
		}
		return invalid("%v", err)
	}
	if dup := firstDuplicate(len(data.Sellers), func(i int) string { return data.Sellers[i].ID }); dup != "" {
		return invalid("duplicate seller id %q", dup)
	}
	if dup := firstDuplicate(len(data.Products), func(i int) string { return data.Products[i].SKU }); dup != "" {
		return invalid("duplicate product sku %q", dup)
	}
	return nil
}

func (l *Loader) validator() *validator.Validate {
	if l == nil || l.validate == nil {
		return validator.New(validator.WithRequiredStructEnabled())
	}
	return l.validate
}

func checkShape(raw []byte) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return invalid("dataset is empty")
	}
	if trimmed[0] != '{' {
		return invalid("dataset must be a JSON object")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return invalid("decode dataset: %v", err)
	}
	var bad []string
	for _, name := range collections {
		value := bytes.TrimSpace(fields[name])
		if len(value) == 0 || value[0] != '[' {
			bad = append(bad, name)
		}
	}
	if len(bad) > 0 {
		return invalid("%s must be arrays", strings.Join(bad, ", "))
	}
	return nil
}

func firstDuplicate(n int, key func(int) string) string {
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		k := key(i)
		if _, ok := seen[k]; ok {
			return k
		}
		seen[k] = struct{}{}
	}
	return ""
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", sellerstats.ErrInvalidInput, fmt.Sprintf(format, args...))
}
