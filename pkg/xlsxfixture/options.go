// Package xlsxfixture serializes ORM records to xlsx workbooks and back: one
// sheet per model, one row per record, one column per field.
package xlsxfixture

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/codec"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/parser"
)

// Layout selects how the decoder finds the type and header of a sheet.
type Layout string

const (
	// LayoutSheetName reads the type from the sheet name and the header from
	// row 1. It is the only layout the encoder writes.
	LayoutSheetName Layout = "sheet-name"
	// LayoutLegacy reads the type from cell A1 and the header from row 2.
	//
	// Deprecated: kept to read files written by older exporters.
	LayoutLegacy Layout = "legacy"
	// LayoutAuto uses LayoutSheetName unless the sheet name is not a model
	// and A1 alone names one.
	LayoutAuto Layout = "auto"
)

// KindPolicy selects what the encoder does with fields of unsupported kinds.
type KindPolicy string

const (
	// KindPolicyString writes unsupported kinds as their string form.
	KindPolicyString KindPolicy = "string"
	// KindPolicyReject fails on records with unsupported kinds.
	KindPolicyReject KindPolicy = "reject"
)

// Options configures serialization and deserialization.
type Options struct {
	// UseTZ makes decoded date-times zone aware. Naive values get Location.
	UseTZ bool
	// Location is the default zone, UTC when nil.
	Location *time.Location
	// UseNaturalPrimaryKeys omits the primary key column for models with a
	// natural key.
	UseNaturalPrimaryKeys bool
	// HeaderStyle applies the header theme to header rows.
	// If nil, defaults to true.
	HeaderStyle *bool
	// UnsupportedKinds is the policy for fields outside the kind allow-list.
	UnsupportedKinds KindPolicy
	// Layout is the sheet layout read by the decoder.
	Layout Layout
	// Console forces or disables the CSV projection in Finish.
	// If nil, it is detected from the output writer.
	Console *bool
}

// DefaultOptions returns default options.
func DefaultOptions() Options {
	return Options{
		UnsupportedKinds: KindPolicyString,
		Layout:           LayoutSheetName,
	}
}

// ShouldStyleHeader returns whether header rows get the header theme.
func (o Options) ShouldStyleHeader() bool {
	if o.HeaderStyle != nil {
		return *o.HeaderStyle
	}
	return true
}

// IsConsole returns whether w is an interactive terminal.
func (o Options) IsConsole(w io.Writer) bool {
	if o.Console != nil {
		return *o.Console
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (o Options) decoder(resolver codec.Resolver) *codec.Decoder {
	return &codec.Decoder{UseTZ: o.UseTZ, Location: o.Location, Resolver: resolver}
}

func (o Options) layout() Layout {
	if o.Layout == "" {
		return LayoutSheetName
	}
	return o.Layout
}

func (l Layout) parserLayout() parser.Layout {
	if l == LayoutLegacy {
		return parser.LayoutLegacy
	}
	return parser.LayoutSheetName
}

// Bool returns a pointer to b, for the *bool fields of Options.
func Bool(b bool) *bool {
	return &b
}
