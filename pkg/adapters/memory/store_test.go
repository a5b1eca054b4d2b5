package memory_test

import (
	"testing"

	"github.com/techiemaya-admin/lad-onboarding/pkg/adapters/memory"
	"github.com/techiemaya-admin/lad-onboarding/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSessionStoreContract(t, store)
}
