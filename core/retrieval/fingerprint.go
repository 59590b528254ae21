package retrieval

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/hybridrank/hybridrank/model"
)

// Fingerprint derives the deterministic cache key of a query under the
// active configuration: query text, enabled-signal set, normalized
// weights, minimum score and result limit. Any change to these inputs
// yields a different key.
func Fingerprint(queryText string, config model.SearchConfig, normalized map[model.Signal]float64) string {
	var builder strings.Builder
	builder.WriteString(queryText)
	builder.WriteByte('\n')

	// Fixed signal order keeps the key independent of map iteration
	for _, signal := range model.AllSignals {
		weight, enabled := normalized[signal]
		if !enabled {
			continue
		}
		fmt.Fprintf(&builder, "%v=%.12f;", signal, weight)
	}

	fmt.Fprintf(&builder, "\nmin_score=%.12f;max_results=%d", config.MinScore, config.MaxResults)

	sum := sha256.Sum256([]byte(builder.String()))
	return hex.EncodeToString(sum[:])
}
