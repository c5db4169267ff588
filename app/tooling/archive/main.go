// This program provides command line access to the archive history.
package main

import (
	"github.com/ardanlabs/archive/app/tooling/archive/cmd"
)

func main() {
	cmd.Execute()
}
