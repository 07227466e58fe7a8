// Package versego trains VERSE-style node embeddings for large graphs.
//
// Embeddings are learned with a skip-gram objective and negative sampling.
// Positive pairs come from one of three similarity measures over the graph,
// and many workers update a shared embedding matrix without locks (Hogwild).
//
// # Quick Start
//
//	g, _ := graph.New(offsets, edges)
//	w := embedding.NewMatrix(g.NumNodes(), 128)
//	w.InitUniform(xrand.New(1))
//
//	res, err := versego.TrainPPR(ctx, g, w,
//	    versego.WithEpochs(1000),
//	    versego.WithWorkers(8),
//	)
//	if err != nil { ... }
//	if err := w.CheckFinite(); err != nil { ... }
//
// # Similarity Modes
//
//   - ModeNeighbor: the target is a direct out-neighbor of the source.
//   - ModePPR: the target ends a restart walk from the source
//     (personalized PageRank).
//   - ModeSimRank: the target ends a restart walk that starts where a first
//     walk from the source ended.
//
// # Termination
//
// Training runs until Epochs × N positive pairs have been counted, where N is
// the number of nodes. Workers flush their local count every BatchSize samples,
// so the final count can overshoot by less than Workers × BatchSize.
//
// # Reproducibility
//
// With one worker and a fixed seed, training is deterministic. With several
// workers, updates to the same row race and results vary between runs.
//
// # Persistence
//
// The job package loads graphs from a blobstore.BlobStore, trains, writes the
// embedding with optional zstd or lz4 compression and commits a run manifest.
package versego
