package memstore_test

import (
	"testing"

	"github.com/jrsteele09/water-dashboard/tokens"
	"github.com/jrsteele09/water-dashboard/tokens/memstore"
	"github.com/jrsteele09/water-dashboard/tokens/storetest"
)

func TestMemStoreContract(t *testing.T) {
	storetest.RunContract(t, func(t *testing.T) tokens.Store { return memstore.New() })
}
