package usecase

import (
	"context"
	"sync"

	"TradePulse/internal/domain/models"
)

// PriceBook keeps a bounded in-memory window of recent ticks for one symbol.
// It is the downstream of the tick pipeline and the read side for both scan
// loops.
type PriceBook struct {
	mu     sync.RWMutex
	symbol string
	buf    []models.PriceSnapshot
	head   int
	size   int
}

// NewPriceBook creates a book holding at most capacity ticks.
func NewPriceBook(symbol string, capacity int) *PriceBook {
	if capacity < 2 {
		capacity = 2
	}
	return &PriceBook{symbol: symbol, buf: make([]models.PriceSnapshot, capacity)}
}

// Process appends a tick. Implements the pipeline downstream interface.
func (b *PriceBook) Process(_ context.Context, snap *models.PriceSnapshot) error {
	b.mu.Lock()
	b.buf[b.head] = *snap
	b.head = (b.head + 1) % len(b.buf)
	if b.size < len(b.buf) {
		b.size++
	}
	b.mu.Unlock()
	return nil
}

// Latest returns the most recent tick, false when none have arrived yet.
func (b *PriceBook) Latest() (models.PriceSnapshot, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.size == 0 {
		return models.PriceSnapshot{}, false
	}
	idx := (b.head - 1 + len(b.buf)) % len(b.buf)
	return b.buf[idx], true
}

// View returns up to n most recent ticks in ascending order.
func (b *PriceBook) View(n int) *models.MarketView {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n <= 0 || n > b.size {
		n = b.size
	}
	ticks := make([]models.PriceSnapshot, n)
	start := (b.head - n + len(b.buf)) % len(b.buf)
	for i := 0; i < n; i++ {
		ticks[i] = b.buf[(start+i)%len(b.buf)]
	}
	return &models.MarketView{Symbol: b.symbol, Ticks: ticks}
}

// Len returns the number of ticks currently held.
func (b *PriceBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}
