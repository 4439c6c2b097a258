// Command importer loads the site collection from the CMS (or a JSON export)
// into the directory database, either directly or through the Temporal
// import workflow.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
