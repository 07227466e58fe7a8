// Package mmap maps files read-only into memory.
//
//	m, err := mmap.Open("graph.xgfs")
//	if err != nil { ... }
//	defer m.Close()
//
//	_ = m.Advise(mmap.AccessSequential)
//	data := m.Bytes()
//
// Unix systems use mmap(2) and madvise(2). Windows uses
// CreateFileMapping/MapViewOfFile, where Advise is a no-op.
//
// A Mapping is safe for concurrent reads. Close is idempotent; slices obtained
// from Bytes or a Region must not be used after Close.
package mmap
