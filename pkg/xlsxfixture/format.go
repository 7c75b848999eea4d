package xlsxfixture

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/models"
)

// Encoder is the write side of a fixture format.
type Encoder interface {
	Start() error
	BeginRecord(obj models.Object) error
	WriteField(obj models.Object, field *models.Field) error
	WriteRelationField(obj models.Object, field *models.Field) error
	Finish(w io.Writer) error
}

// Decoder is the read side of a fixture format.
type Decoder interface {
	HasNext() bool
	Next(ctx context.Context) (*DeserializedObject, error)
	Close() error
}

// Format is a named fixture format.
type Format interface {
	Name() string
	NewEncoder(opts Options) Encoder
	NewDecoder(ctx context.Context, r io.Reader, registry Registry, store Store, opts Options) (Decoder, error)
}

var (
	formatsMu sync.RWMutex
	formats   = make(map[string]Format)
)

// Register adds a format. It panics when the name is taken.
func Register(f Format) {
	formatsMu.Lock()
	defer formatsMu.Unlock()
	if _, dup := formats[f.Name()]; dup {
		panic(fmt.Sprintf("xlsxfixture: format %q registered twice", f.Name()))
	}
	formats[f.Name()] = f
}

// Lookup returns the format called name.
func Lookup(name string) (Format, bool) {
	formatsMu.RLock()
	defer formatsMu.RUnlock()
	f, ok := formats[name]
	return f, ok
}

// Formats returns the registered format names, sorted.
func Formats() []string {
	formatsMu.RLock()
	defer formatsMu.RUnlock()
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FormatName is the name the xlsx format is registered under.
const FormatName = "xlsx"

type xlsxFormat struct{}

func (xlsxFormat) Name() string { return FormatName }

func (xlsxFormat) NewEncoder(opts Options) Encoder {
	return NewSerializer(opts)
}

func (xlsxFormat) NewDecoder(ctx context.Context, r io.Reader, registry Registry, store Store, opts Options) (Decoder, error) {
	return NewDeserializer(ctx, r, registry, store, opts)
}

func init() {
	Register(xlsxFormat{})
}
