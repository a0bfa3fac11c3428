package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tcoin/blockchain/foundation/blockchain/signature"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Print the public key of the wallet",
	RunE:  accountRun,
}

func init() {
	rootCmd.AddCommand(accountCmd)
}

func accountRun(cmd *cobra.Command, args []string) error {
	privateKey, err := loadPrivateKey()
	if err != nil {
		return err
	}

	fmt.Println(signature.PublicKeyHex(privateKey.PublicKey))
	return nil
}
