// Command versego trains VERSE node embeddings and converts text graphs to XGFS.
//
//	versego convert --format edgelist --undirected karate.txt file:///data/karate.xgfs
//	versego train --mode simrank --dim 128 file:///data/karate.xgfs
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
