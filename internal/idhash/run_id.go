package idhash

import (
	"fmt"

	"github.com/google/uuid"
)

// runNamespace scopes run ids to this tool.
var runNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("trd-cea-lab/analysis-run"))

// ComputeRunID computes a deterministic run_id (UUID v5).
// Formula: UUIDv5(namespace, config_hash|jurisdiction|seed|draws)
// The same document, jurisdiction, seed and draw count map to the same run.
func ComputeRunID(configHash, jurisdiction string, seed uint64, draws int) uuid.UUID {
	data := fmt.Sprintf("%s|%s|%d|%d", configHash, jurisdiction, seed, draws)
	return uuid.NewSHA1(runNamespace, []byte(data))
}
