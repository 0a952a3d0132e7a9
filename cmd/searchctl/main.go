// Command searchctl inspects what a search set resolves: which archives
// are registered, which members they hold and where a name comes from.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
