package tests

import (
	"errors"
	"testing"

	"github.com/aretw0/twolc/pkg/domain"
	"github.com/aretw0/twolc/pkg/ports"
)

// GrammarLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.GrammarLoader.
func GrammarLoaderContractTest(t *testing.T, loader ports.GrammarLoader, setupData map[string][]byte) {
	t.Helper()

	// 1. Test GetGrammar (Success)
	t.Run("GetGrammar_Success", func(t *testing.T) {
		for id, expectedContent := range setupData {
			content, err := loader.GetGrammar(id)
			if err != nil {
				t.Fatalf("unexpected error getting grammar %s: %v", id, err)
			}
			if string(content) != string(expectedContent) {
				t.Errorf("content mismatch for %s. got %q, want %q", id, content, expectedContent)
			}
		}
	})

	// 2. Test GetGrammar (NotFound)
	t.Run("GetGrammar_NotFound", func(t *testing.T) {
		_, err := loader.GetGrammar("non-existent-grammar")
		if !errors.Is(err, domain.ErrGrammarNotFound) {
			t.Errorf("expected ErrGrammarNotFound for non-existent grammar, got %v", err)
		}
	})

	// 3. Test ListGrammars
	t.Run("ListGrammars", func(t *testing.T) {
		ids, err := loader.ListGrammars()
		if err != nil {
			t.Fatalf("unexpected error listing grammars: %v", err)
		}

		if len(ids) != len(setupData) {
			t.Errorf("expected %d grammars, got %d", len(setupData), len(ids))
		}

		lookup := make(map[string]bool)
		for _, id := range ids {
			lookup[id] = true
		}

		for id := range setupData {
			if !lookup[id] {
				t.Errorf("grammar %s missing from list", id)
			}
		}
	})
}
