// hexfrontd is the game-state-processor node: it follows the host chain
// through a block feed, applies every confirmed block deterministically and
// serves the resulting game state.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
