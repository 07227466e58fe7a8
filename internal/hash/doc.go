// Package hash provides the CRC32-Castagnoli checksum used for blob integrity.
//
// Manifests record the CRC32C of every embedding blob they reference, and the S3
// store sends the same checksum with uploads. Go's crc32 package uses SSE4.2 or
// the ARM CRC extension when available.
//
// One-shot:
//
//	sum := hash.CRC32C(data)
//
// Streaming:
//
//	h := hash.NewCRC32C()
//	io.Copy(h, r)
//	sum := h.Sum32()
package hash
