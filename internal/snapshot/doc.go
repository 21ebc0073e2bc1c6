// Package snapshot converts a raw database image into durable text and back.
//
// The durable form is a data URL:
//
//	data:application/x-sqlite3;base64,<payload>
//
// When compression is enabled the image is snappy-encoded before base64 and
// the mime type becomes application/x-sqlite3+snappy. Decode dispatches on the
// mime type, so a store can switch the setting without losing old snapshots.
// Any other mime type (for example application/octet-stream) is treated as an
// uncompressed image.
package snapshot
