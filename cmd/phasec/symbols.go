package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/funvibe/phasec/internal/symdb"
)

func handleSymbols(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintf(stderr, "Usage: phasec symbols <db> [unit-id]\n")
		return 2
	}

	db, err := symdb.Open(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 1
	}
	defer db.Close()

	ctx := context.Background()
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	if len(args) == 1 {
		units, err := db.Units(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %s\n", err)
			return 1
		}
		fmt.Fprintln(tw, "UNIT\tFILE\tCHECKED\tERRORS")
		for _, u := range units {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", u.ID, u.File, u.CheckedAt.Format(time.RFC3339), u.Errors)
		}
		return 0
	}

	syms, err := db.Symbols(ctx, args[1])
	if errors.Is(err, symdb.ErrUnitNotFound) {
		fmt.Fprintf(stderr, "No unit %s in %s\n", args[1], args[0])
		return 1
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 1
	}
	fmt.Fprintln(tw, "SCOPE\tNAME\tKIND\tPHASE\tTYPE")
	for _, s := range syms {
		name := s.Name
		if s.Reassignable {
			name = "var " + name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.Scope, name, s.Kind, s.Phase, s.Type)
	}
	return 0
}
