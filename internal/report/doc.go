// Package report renders scan, compress, move and history results for the
// console, and writes them as JSON for scripts.
//
// Colors are used only when the output is a terminal and NO_COLOR is unset.
package report
