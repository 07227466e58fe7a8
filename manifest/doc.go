// Package manifest records what a training run produced.
//
// A Manifest is written to "manifests/<id>.json" in a blobstore.BlobStore, after
// which the CURRENT blob is pointed at it. Readers resolve CURRENT first, so they
// never observe a manifest whose embedding blob is still being uploaded. With the
// S3+DynamoDB commit store the CURRENT update is a compare-and-swap.
package manifest
