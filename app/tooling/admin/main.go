// This program performs administrative tasks on the chain stored by a node.
package main

import (
	"fmt"
	"os"

	"github.com/tcoin/blockchain/app/tooling/admin/commands"
	"github.com/tcoin/blockchain/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

const (
	dbPath      = "zblock/blocks/utxo"
	genesisPath = "zblock/genesis.json"
)

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Errorw("admin", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	log.Infow("admin", "version", build, "args", os.Args[1:])
	return processCommands(os.Args)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: admin blocks | verify | bals [publickey]")
	}

	switch args[1] {
	case "blocks":
		if err := commands.Blocks(dbPath); err != nil {
			return fmt.Errorf("listing blocks: %w", err)
		}
	case "verify":
		if err := commands.Verify(dbPath); err != nil {
			return fmt.Errorf("verifying chain: %w", err)
		}
	case "bals":
		if err := commands.Balances(args, dbPath, genesisPath); err != nil {
			return fmt.Errorf("getting balances: %w", err)
		}
	default:
		return fmt.Errorf("unknown command %q", args[1])
	}

	return nil
}
