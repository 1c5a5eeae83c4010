// Command companion runs the page-side analysis pipeline against a saved
// problem page, and manages the local analysis cache.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}
