// Print a multistream index with the true stream offsets, past the
// 32-bit wraparound of the ones written in the file.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/dustin/go-wikihistory"
	"github.com/dustin/go-wikihistory/internal/cli"
)

var (
	app   = kingpin.New("indexfix", "Rewrite a multistream index with 64-bit offsets.")
	index = app.Arg("index", "The multistream index (.txt or .txt.bz2)").Required().ExistingFile()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))
	env := cli.MustSetup()
	defer env.Log.Sync()

	ctx, cancel := cli.Context()
	defer cancel()

	r, err := wikihistory.OpenDump(ctx, *index, env.Options()...)
	if err != nil {
		env.Log.Fatal("Error opening index", zap.String("path", *index), zap.Error(err))
	}
	defer r.Close()

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	ir := wikihistory.NewIndexReader(r)
	for {
		e, err := ir.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			env.Log.Fatal("Error reading index", zap.Error(err))
		}
		fmt.Fprintln(w, e.String())
	}
}
