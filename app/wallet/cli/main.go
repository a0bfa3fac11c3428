package main

import "github.com/tcoin/blockchain/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
