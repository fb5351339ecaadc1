// Command tempo runs and replays time-curve simulations.
package main

import "github.com/sarchlab/tempo/tempo/cmd"

func main() {
	cmd.Execute()
}
