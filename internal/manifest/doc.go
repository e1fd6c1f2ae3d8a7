// Package manifest parses bundle manifests and computes the hashes that seal
// them. A manifest declares every file of a bundle together with its SHA-256
// digest and, optionally, its size in bytes.
//
// # Manifest Format
//
// Two shapes are recognized. The self-describing shape keys its rows under
// "entries" and carries two aggregate seals:
//
//	{
//	  "entries": [
//	    {"path": "a.txt", "sha256": "8f434346...", "size": 2}
//	  ],
//	  "bundle_sha256": "<64-hex>",
//	  "manifest_sha256": "<64-hex>"
//	}
//
// The legacy shape keys its rows under "files" and has no aggregate seals.
// When both keys hold arrays, "entries" wins.
//
// # Usage
//
//	m, err := manifest.ParseBytes(data)
//	if err != nil {
//	    return err
//	}
//	computed := manifest.AggregateBundleHash(m.Entries)
//	self, err := manifest.SelfHash(m.Raw)
//
// # Error Handling
//
// Rows that are not JSON objects are dropped and counted in Manifest.Skipped.
// Rows that are objects but carry a malformed path or digest fail the whole
// parse with a *ValidationError that wraps one of:
//   - ErrInvalidPath: empty, absolute or non-normalized entry path
//   - ErrInvalidSHA256: digest is not 64 hex characters
//
// A document without an entries/files array fails with ErrMissingEntries and
// a document that is not a JSON object fails with ErrInvalidFormat.
package manifest
