// Package testutil provides shared test helpers: a deterministic embedding
// function, a scripted model stub and a quiet logger. Test-only; production
// code never imports this package.
package testutil

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"testing"

	chromem "github.com/philippgille/chromem-go"

	"github.com/coursepilot/coursepilot/internal/log"
)

// Logger returns a logger that discards all output.
func Logger(t *testing.T) log.Logger {
	t.Helper()
	return log.NewNop()
}

// FakeEmbedding returns a deterministic chromem embedding function that needs
// no network or API key. Texts sharing words embed closer together, so
// similarity ordering in tests behaves like a real embedder's would.
func FakeEmbedding(dims int) chromem.EmbeddingFunc {
	if dims < 8 {
		dims = 64
	}
	return func(_ context.Context, text string) ([]float32, error) {
		vec := make([]float32, dims)
		for _, tok := range strings.Fields(strings.ToLower(text)) {
			tok = strings.Trim(tok, ".,!?:;'\"()[]")
			if tok == "" {
				continue
			}
			h := fnv.New32a()
			_, _ = h.Write([]byte(tok))
			vec[int(h.Sum32())%dims] += 1
		}

		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		if norm == 0 {
			vec[0] = 1
			return vec, nil
		}
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
		return vec, nil
	}
}
