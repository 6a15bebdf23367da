// Command docket inspects and maintains document store collections.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
)

func main() {
	if err := run(context.Background(), os.Args[1:], newApp(), os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the command line and releases the connection afterwards.
func run(ctx context.Context, args []string, a *app, stdout, stderr io.Writer) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if cerr := a.close(ctx); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
