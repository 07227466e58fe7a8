// Package job runs one end-to-end training job against blob storage.
//
// A Job loads an XGFS graph, reserves memory for it and the embedding matrices,
// trains, rejects non-finite results and finally writes the embedding, an
// optional label index and a manifest. The manifest is committed last, so a
// reader following CURRENT only ever sees complete runs.
package job
