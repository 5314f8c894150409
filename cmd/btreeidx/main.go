// Command btreeidx is the thin command-line wrapper around the
// disk-resident B-tree index library: create, insert, search, load,
// print, and extract.
package main

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func main() {
	// Command names are case-insensitive; every other token (paths,
	// keys, values) is case-sensitive and passed through untouched.
	if len(os.Args) > 1 {
		os.Args[1] = strings.ToLower(os.Args[1])
	}

	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
