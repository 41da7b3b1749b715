// Command sigscan resolves a signature catalog against an executable on disk
// and prints where each signature lands, without touching a live process.
//
//	sigscan scan --catalog sigs.yaml --image host.exe
//	sigscan compile "8D 75 D0 B8 ?? ?? ?? ?? E8"
package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	if err := newRootCmd(log).Execute(); err != nil {
		log.WithError(err).Error("sigscan failed")
		os.Exit(1)
	}
}
