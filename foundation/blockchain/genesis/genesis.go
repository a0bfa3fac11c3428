// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Set of default consensus parameters.
const (
	DefaultDifficulty      = 4
	DefaultMiningReward    = 1000
	DefaultMaxSteps        = 10_000
	DefaultProtocolVersion = 1
)

// Genesis represents the genesis file.
type Genesis struct {
	Date            time.Time `json:"date"`
	ProtocolVersion uint32    `json:"protocol_version"` // Peers must speak the same version to connect.
	Difficulty      uint32    `json:"difficulty"`       // How difficult it needs to be to solve the work problem.
	MiningReward    uint64    `json:"mining_reward"`    // Reward for mining a block.
	HashRate        float64   `json:"hash_rate"`        // Target hashes per second while mining, 0 is unlimited.
	MaxSteps        int       `json:"max_steps"`        // Step budget of a contract call.
}

// Default returns the genesis used when no file is provided.
func Default() Genesis {
	return Genesis{
		Date:            time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC),
		ProtocolVersion: DefaultProtocolVersion,
		Difficulty:      DefaultDifficulty,
		MiningReward:    DefaultMiningReward,
		MaxSteps:        DefaultMaxSteps,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. Fields missing from the file
// keep their default value.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	genesis := Default()
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("unmarshal: %w", err)
	}

	if genesis.ProtocolVersion == 0 {
		return Genesis{}, fmt.Errorf("missing protocol version")
	}

	return genesis, nil
}
