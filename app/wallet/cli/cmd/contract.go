package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tcoin/blockchain/foundation/blockchain/account"
)

var (
	nonce        uint64
	codePath     string
	contractID   string
	functionName string
	callArgs     string
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy a lisp contract",
	RunE:  deployRun,
}

var callCmd = &cobra.Command{
	Use:   "call",
	Short: "Call a procedure of a contract",
	RunE:  callRun,
}

func init() {
	rootCmd.AddCommand(deployCmd)
	deployCmd.Flags().StringVarP(&codePath, "code", "c", "", "Path to the contract source.")
	deployCmd.Flags().Uint64VarP(&nonce, "nonce", "n", 0, "Nonce of the transaction, the current time when 0.")

	rootCmd.AddCommand(callCmd)
	callCmd.Flags().StringVarP(&contractID, "contract", "k", "", "Id of the contract.")
	callCmd.Flags().StringVarP(&functionName, "function", "f", "", "Procedure to call.")
	callCmd.Flags().StringVarP(&callArgs, "args", "r", "[]", "JSON array of arguments.")
	callCmd.Flags().Uint64VarP(&nonce, "nonce", "n", 0, "Nonce of the transaction, the current time when 0.")
}

func deployRun(cmd *cobra.Command, args []string) error {
	code, err := os.ReadFile(codePath)
	if err != nil {
		return err
	}

	privateKey, err := loadPrivateKey()
	if err != nil {
		return err
	}

	tx, err := account.NewDeploy(privateKey, txNonce(), string(code))
	if err != nil {
		return err
	}

	if _, err := submit(tx); err != nil {
		return err
	}

	fmt.Println(account.ContractID(string(code)))
	return nil
}

func callRun(cmd *cobra.Command, args []string) error {
	if contractID == "" || functionName == "" {
		return errors.New("a contract and a function are required")
	}

	var fnArgs []any
	if err := json.Unmarshal([]byte(callArgs), &fnArgs); err != nil {
		return fmt.Errorf("args: %w", err)
	}

	privateKey, err := loadPrivateKey()
	if err != nil {
		return err
	}

	tx, err := account.NewCall(privateKey, txNonce(), contractID, functionName, fnArgs...)
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

func txNonce() uint64 {
	if nonce != 0 {
		return nonce
	}
	return uint64(time.Now().UnixNano())
}
