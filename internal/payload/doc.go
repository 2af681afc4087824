// Package payload models the structured reports emitted by external
// validator tools.
//
// Tool output is decoded once into a sealed Value tree (Null, String,
// Number, Bool, Array, Object) and carried through the harness as a nested
// value, never as an escaped string. This keeps persisted result artifacts
// free of ad hoc quote stripping: a report that itself contains JSON-like
// text is stored as a JSON string and comes back byte-identical.
//
// Key design constraints:
//   - Numbers keep their literal text (json.Number); nothing is routed
//     through float64 on the way in.
//   - MarshalCanonical produces RFC 8785 ordered output (UTF-16 key order,
//     NFC strings, no HTML escaping) so digests are stable across runs.
//   - MarshalOrdered keeps the key order but writes strings and number
//     literals untouched; persisted artifacts use it.
//   - This package imports nothing internal.
package payload
