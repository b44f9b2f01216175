// Command durjog harvests fresh disaster news from configured sources and
// serves it over HTTP.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
