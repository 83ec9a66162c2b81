package repository

import (
	"testing"

	drepo "ArbPilot/internal/domain/repository"

	"github.com/stretchr/testify/assert"
)

func TestMemoryCursorStoreStartsAtLiveTail(t *testing.T) {
	s := NewMemoryCursorStore([]string{"signals:arb", "signals:liq"})

	assert.Equal(t, drepo.CursorLiveTail, s.Get("signals:arb"))
	assert.Equal(t, drepo.CursorLiveTail, s.Get("signals:liq"))
}

func TestMemoryCursorStoreAdvance(t *testing.T) {
	s := NewMemoryCursorStore([]string{"signals:arb"})

	s.Advance("signals:arb", "1700000000000-0")
	assert.Equal(t, "1700000000000-0", s.Get("signals:arb"))

	s.Advance("signals:arb", "1700000000000-1")
	assert.Equal(t, "1700000000000-1", s.Get("signals:arb"))
}

func TestMemoryCursorStoreUnknownStream(t *testing.T) {
	s := NewMemoryCursorStore(nil)
	assert.Equal(t, drepo.CursorLiveTail, s.Get("signals:unknown"))
}
