package account

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tcoin/blockchain/foundation/blockchain/lisp"
	"github.com/tcoin/blockchain/foundation/blockchain/signature"
)

// Contract represents deployed code and the storage it owns.
type Contract struct {
	ID      string                `json:"id"`
	Code    string                `json:"code"`
	Storage map[string]lisp.Value `json:"storage"`
}

// ContractID returns the id a contract with the code is deployed under.
func ContractID(code string) string {
	return signature.HashString(code)
}

// =============================================================================

// contracts is the set of deployed contracts. The storage of a contract is
// never changed in place, a call replaces the contract with a new one, so a
// shallow copy of the set is enough to stage changes.
type contracts map[string]Contract

// clone makes a copy of the contract set.
func (c contracts) clone() contracts {
	cpy := make(contracts, len(c))
	for id, contract := range c {
		cpy[id] = contract
	}
	return cpy
}

// list returns the contracts ordered by id.
func (c contracts) list() []Contract {
	list := make([]Contract, 0, len(c))
	for _, contract := range c {
		list = append(list, contract)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// apply executes the transaction against the contract set.
func (c contracts) apply(tx Transaction, maxSteps int) error {
	switch tx.Type {
	case TypeDeploy:
		id := ContractID(tx.Code)
		if _, exists := c[id]; exists {
			return fmt.Errorf("contract %.16s already deployed", id)
		}

		scratch := storage{values: map[string]lisp.Value{}}
		if _, err := lisp.Evaluate(tx.Code, scratch, maxSteps); err != nil {
			return fmt.Errorf("deploy: %w", err)
		}

		c[id] = Contract{
			ID:      id,
			Code:    tx.Code,
			Storage: map[string]lisp.Value{},
		}
		return nil

	case TypeCall:
		contract, exists := c[tx.Contract]
		if !exists {
			return fmt.Errorf("contract %.16s not found", tx.Contract)
		}

		args, err := normalize(tx.Args)
		if err != nil {
			return err
		}

		env := storage{values: make(map[string]lisp.Value, len(contract.Storage))}
		for k, v := range contract.Storage {
			env.values[k] = v
		}

		ev := lisp.New(env, maxSteps)
		if _, err := ev.Run(contract.Code); err != nil {
			return fmt.Errorf("load: %w", err)
		}
		if _, err := ev.Call(tx.FunctionName, args...); err != nil {
			return fmt.Errorf("call %s: %w", tx.FunctionName, err)
		}

		// The storage ends up in the block content and has to serialize.
		if _, err := json.Marshal(env.values); err != nil {
			return fmt.Errorf("call %s: storage: %w", tx.FunctionName, err)
		}

		contract.Storage = env.values
		c[contract.ID] = contract
		return nil
	}

	return fmt.Errorf("unknown transaction type %q", tx.Type)
}

// equal reports if the declared contracts match the set.
func (c contracts) equal(declared []Contract) bool {
	if declared == nil {
		declared = []Contract{}
	}

	exp, err := signature.Hash(c.list())
	if err != nil {
		return false
	}

	got, err := signature.Hash(declared)
	if err != nil {
		return false
	}

	return exp == got
}

// =============================================================================

// storage binds the lisp storage builtins to a copy of a contract storage.
type storage struct {
	values map[string]lisp.Value
}

func (s storage) GetStorage(key string) (lisp.Value, bool) {
	v, exists := s.values[key]
	return v, exists
}

func (s storage) SetStorage(key string, value lisp.Value) {
	s.values[key] = value
}

// normalize converts the arguments into the values they have on the wire.
func normalize(args []any) ([]lisp.Value, error) {
	if len(args) == 0 {
		return nil, nil
	}

	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("args: %w", err)
	}

	var values []lisp.Value
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("args: %w", err)
	}

	return values, nil
}
