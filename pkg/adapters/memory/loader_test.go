package memory_test

import (
	"testing"

	"github.com/aretw0/twolc/pkg/adapters/memory"
	contract "github.com/aretw0/twolc/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryLoader_Contract(t *testing.T) {
	data := map[string]string{
		"finnish": `Rules "r" a:b => x _ ;`,
		"empty":   "",
	}

	bytesData := make(map[string][]byte)
	for k, v := range data {
		bytesData[k] = []byte(v)
	}

	loader := memory.NewLoader(data)

	contract.GrammarLoaderContractTest(t, loader, bytesData)
}

func TestInMemoryLoader_Options(t *testing.T) {
	loader := memory.NewLoader(map[string]string{"g": ""}).
		WithOptions("g", map[string]any{"resolve_left_conflicts": true})

	opts, err := loader.GrammarOptions("g")
	require.NoError(t, err)
	assert.Equal(t, true, opts["resolve_left_conflicts"])

	_, err = loader.GrammarOptions("missing")
	assert.Error(t, err)
}
