// Package model defines the data shared by every layer of the console state core.
//
// This package contains types and pure helpers only. All other internal packages
// import model; model imports nothing internal.
//
// Key constraints:
//   - ResourceRecord values are never mutated in place; a reload replaces them.
//   - Payloads stay raw JSON so unknown backend fields survive a round trip.
//   - Digests are computed over canonical JSON so equal content yields equal digests
//     regardless of key order or Unicode normalization form.
package model
