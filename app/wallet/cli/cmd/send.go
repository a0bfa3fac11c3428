package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tcoin/blockchain/foundation/blockchain/signature"
	"github.com/tcoin/blockchain/foundation/blockchain/utxo"
)

var (
	to     string
	amount uint64
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send coins to a public key",
	RunE:  sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Public key or name of the receiver.")
	sendCmd.Flags().Uint64VarP(&amount, "amount", "v", 0, "Amount to send.")
}

func sendRun(cmd *cobra.Command, args []string) error {
	if to == "" || amount == 0 {
		return errors.New("a receiver and a positive amount are required")
	}

	privateKey, err := loadPrivateKey()
	if err != nil {
		return err
	}

	// The node resolves names so the receiver can be a wallet name too.
	var receiver balance
	if err := getJSON("/v1/balance/"+to, &receiver); err != nil {
		return err
	}

	var sender balance
	if err := getJSON("/v1/balance/"+signature.PublicKeyHex(privateKey.PublicKey), &sender); err != nil {
		return err
	}

	tx, err := utxo.Send(privateKey, sender.Unspent, receiver.PublicKey, amount)
	if err != nil {
		return err
	}

	id, err := submit(tx)
	if err != nil {
		return err
	}

	fmt.Println(id)
	return nil
}
