package kv_test

import (
	"testing"

	"github.com/thebtf/devconsole/internal/kv"
	"github.com/thebtf/devconsole/internal/kv/kvtest"
)

func TestMemory_Conformance(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) kv.Substrate {
		return kv.NewMemory()
	})
}
