package main

import "cosmos-core/cmd/wallet-cli/cmd"

func main() {
	cmd.Execute()
}
