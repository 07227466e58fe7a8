// Package testutil provides testing utilities for versego.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded random source, fixture graphs and helpers for
// judging the quality of trained embeddings.
//
// # Fixture Graphs
//
//	g := testutil.Ring(16)           // undirected cycle
//	g := testutil.Star(16)           // hub 0 linked to every other node
//	g := testutil.Random(rng, 1000, 8) // skewed random graph, ~8 edges per node
//
// # Embedding Quality
//
//	near := testutil.MeanEdgeCosine(g, w)
//	far := testutil.MeanRandomCosine(rng, w, 1000)
package testutil
