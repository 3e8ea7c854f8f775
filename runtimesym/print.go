package runtimesym

import (
	"fmt"
	"io"

	"github.com/tpch-jitq/queryjit/types"
)

// The Print* family is the runtime symbol surface's result-printing half
// (spec §6: printChar/printBool/printDate/printDouble/printStringView/
// printBigInt/printInteger/printNewline) — minimal formatting helpers
// registered by name in query.SymbolTable, in place of the original's
// printf-to-the-IR-module calls. operators.WriterSink formats rows itself
// and does not call them.
func PrintChar(w io.Writer, v int8)        { fmt.Fprint(w, v) }
func PrintBool(w io.Writer, v bool)        { fmt.Fprint(w, v) }
func PrintDate(w io.Writer, v int32)       { fmt.Fprint(w, v) }
func PrintDouble(w io.Writer, v float64)   { fmt.Fprintf(w, "%.4f", v) }
func PrintStringView(w io.Writer, v types.StringView) { fmt.Fprint(w, v.String()) }
func PrintBigInt(w io.Writer, v int64)     { fmt.Fprint(w, v) }
func PrintInteger(w io.Writer, v int32)    { fmt.Fprint(w, v) }
func PrintNewline(w io.Writer)             { fmt.Fprintln(w) }
