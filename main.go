// The main package for the stayscout executable.
package main

import (
	"github.com/JakeFAU/stayscout/cmd"
)

func main() {
	cmd.Execute()
}
