// The main package for the termdex executable.
package main

import (
	"github.com/JakeFAU/termdex/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
