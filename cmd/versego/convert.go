package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/hupe1980/versego/embedding"
	"github.com/hupe1980/versego/graph/edgelist"
	"github.com/hupe1980/versego/graph/xgfs"
	"github.com/spf13/cobra"
)

type convertFlags struct {
	format     string
	sep        string
	undirected bool
	labels     bool
}

func newConvertCmd(g *globalFlags) *cobra.Command {
	f := &convertFlags{}

	cmd := &cobra.Command{
		Use:   "convert <input> <output-uri>",
		Short: "Convert an edge list or adjacency list to XGFS",
		Long: `Convert reads a text graph ("-" for stdin) and writes it as XGFS.

Node identifiers are renumbered in sorted order. With --labels the mapping is
written next to the output as "<name>.index" so that embedding rows can be
mapped back to the original identifiers.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, g, f, args[0], args[1])
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.format, "format", "edgelist", "input format (edgelist, weighted_edgelist, adjlist)")
	fs.StringVar(&f.sep, "sep", "", "field separator (default: whitespace)")
	fs.BoolVar(&f.undirected, "undirected", false, "add the reverse of every edge")
	fs.BoolVar(&f.labels, "labels", false, "write the node label index")

	return cmd
}

func runConvert(cmd *cobra.Command, g *globalFlags, f *convertFlags, input, output string) error {
	ctx := cmd.Context()

	logger, err := g.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	format, err := edgelist.ParseFormat(f.format)
	if err != nil {
		return err
	}

	var r io.Reader = cmd.InOrStdin()
	if input != "-" {
		file, err := os.Open(input)
		if err != nil {
			return err
		}
		defer file.Close()
		r = file
	}

	start := time.Now()
	res, err := edgelist.Parse(bufio.NewReaderSize(r, 1<<20), edgelist.Options{
		Format:     format,
		Separator:  f.sep,
		Undirected: f.undirected,
	})
	if err != nil {
		logger.LogLoad(ctx, input, 0, 0, 0, err)
		return err
	}
	logger.LogLoad(ctx, input, res.Graph.NumNodes(), res.Graph.NumEdges(), time.Since(start), nil)

	storeURI, name, err := splitBlobURI(output)
	if err != nil {
		return err
	}
	store, err := openStore(ctx, storeURI)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := xgfs.Write(&buf, res.Graph, res.Weights); err != nil {
		return err
	}
	err = store.Put(ctx, name, buf.Bytes())
	logger.LogSave(ctx, name, int64(buf.Len()), err)
	if err != nil {
		return err
	}

	if f.labels {
		buf.Reset()
		if err := embedding.WriteIndex(&buf, res.Labels); err != nil {
			return err
		}
		idx := strings.TrimSuffix(name, path.Ext(name)) + ".index"
		err = store.Put(ctx, idx, buf.Bytes())
		logger.LogSave(ctx, idx, int64(buf.Len()), err)
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d nodes, %d edges\n", output, res.Graph.NumNodes(), res.Graph.NumEdges())
	return nil
}
