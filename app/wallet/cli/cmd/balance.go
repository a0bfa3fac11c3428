package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tcoin/blockchain/foundation/blockchain/signature"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance.",
	RunE:  balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) error {
	privateKey, err := loadPrivateKey()
	if err != nil {
		return err
	}

	publicKey := signature.PublicKeyHex(privateKey.PublicKey)

	var bal balance
	if err := getJSON("/v1/balance/"+publicKey, &bal); err != nil {
		return err
	}

	fmt.Println("For Public Key:", publicKey)
	fmt.Println(bal.Balance)
	return nil
}
