package memory

import (
	"testing"

	"github.com/keepstack/keepstack/internal/backend"
	"github.com/keepstack/keepstack/internal/backend/backendtest"
)

func TestMemoryAdapter_Compliance(t *testing.T) {
	backendtest.Run(t, func(t *testing.T) backend.Adapter { return New() })
}
