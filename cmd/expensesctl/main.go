// Command expensesctl administers an expenses database: migrations, the
// shared category list, user accounts, session cleanup and spreadsheet
// exports.
package main

import (
	"context"
	"os"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}
