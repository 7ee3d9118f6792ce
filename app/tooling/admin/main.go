// This program performs administrative tasks for the milkchain service.
package main

import (
	"github.com/ardanlabs/milkchain/app/tooling/admin/cmd"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {
	cmd.Execute(build)
}
