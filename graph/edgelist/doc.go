// Package edgelist parses text graph files into a CSR.
//
// Three line-oriented formats are supported:
//
//	edgelist           "src dst"
//	weighted_edgelist  "src dst weight"
//	adjlist            "src n1 n2 ..."
//
// Lines starting with '#' or '%' are comments. Node identifiers are arbitrary
// tokens; they are mapped to dense ids in sorted order, numerically when every
// identifier is an integer and lexically otherwise. The original identifiers are
// returned as labels so that embedding rows can be mapped back.
package edgelist
