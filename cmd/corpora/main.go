// Command corpora runs E-ARK validators against the test corpus and
// reports how their verdicts compare with the corpus's expectations.
package main

import (
	"fmt"
	"os"

	"github.com/carlwilson/corpus-testing/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
