package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tcoin/blockchain/foundation/blockchain/utxo"
)

var client = http.Client{Timeout: 10 * time.Second}

// balance is the reply of the balance endpoint.
type balance struct {
	PublicKey string         `json:"publicKey"`
	Name      string         `json:"name"`
	Balance   uint64         `json:"balance"`
	Unspent   []utxo.Unspent `json:"unspent"`
}

func getJSON(path string, val any) error {
	resp, err := client.Get(url + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(val)
}

// submit posts a signed transaction to the node and returns its id.
func submit(tx any) (string, error) {
	data, err := json.Marshal(tx)
	if err != nil {
		return "", err
	}

	resp, err := client.Post(url+"/v1/tx/submit", "application/json", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	return result.ID, nil
}

func decodeError(resp *http.Response) error {
	var er struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	if len(er.Fields) > 0 {
		return fmt.Errorf("status %d: %s: %v", resp.StatusCode, er.Error, er.Fields)
	}
	return fmt.Errorf("status %d: %s", resp.StatusCode, er.Error)
}
