// ssoexport
package main

import (
	"os"

	"ssoexport/ssoexport"
)

func main() {
	os.Exit(ssoexport.CLI(os.Args[1:]))
}
