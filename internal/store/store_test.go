package store

import (
	"errors"
	"sync"
	"testing"

	"pos-backend/internal/apperror"
	"pos-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownEstablishmentIsNotFound(t *testing.T) {
	s := New()

	err := s.View(42, func(p *Partition) error { return nil })
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestEstablishmentNamesAreUnique(t *testing.T) {
	s := New()
	s.MustCreateEstablishment("Cantina", "")

	_, err := s.CreateEstablishment("  cANTINA ", "")
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = s.CreateEstablishment("   ", "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	assert.Len(t, s.Establishments(), 1)
}

func TestConcurrentCreateWithSameNameHasOneWinner(t *testing.T) {
	s := New()

	const workers = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateEstablishment("Cantina", "")
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, apperror.ErrConflict)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Len(t, s.Establishments(), 1)
}

func TestPartitionsAreIsolated(t *testing.T) {
	s := New()
	a := s.MustCreateEstablishment("Cantina A", "")
	b := s.MustCreateEstablishment("Cantina B", "")

	require.NoError(t, s.Update(a.ID, func(p *Partition) error {
		p.PutProduct(models.Product{ID: p.NextProductID(), Name: "Pastel"})
		return nil
	}))

	var seen []models.Product
	require.NoError(t, s.View(b.ID, func(p *Partition) error {
		seen = p.Products()
		return nil
	}))
	assert.Empty(t, seen)
}

func TestFailedUpdateRollsBack(t *testing.T) {
	s := New()
	est := s.MustCreateEstablishment("Cantina", "")

	err := s.Update(est.ID, func(p *Partition) error {
		p.PutProduct(models.Product{ID: p.NextProductID(), Name: "Coxinha"})
		p.AppendTransaction(models.InventoryTransaction{ID: p.NextTransactionID()})
		seq := p.NextOrderSeq()
		p.PutOrder(models.Order{ID: models.FormatOrderID(seq), Seq: seq})
		return errors.New("abort")
	})
	require.Error(t, err)

	require.NoError(t, s.View(est.ID, func(p *Partition) error {
		assert.Empty(t, p.Products())
		assert.Empty(t, p.Transactions())
		assert.Empty(t, p.Orders())
		return nil
	}))

	// the order sequence is rolled back too, keeping ids gapless
	require.NoError(t, s.Update(est.ID, func(p *Partition) error {
		assert.Equal(t, 1, p.NextOrderSeq())
		return nil
	}))
}

func TestConcurrentOrderSequenceIsGapless(t *testing.T) {
	s := New()
	est := s.MustCreateEstablishment("Cantina", "")

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Update(est.ID, func(p *Partition) error {
				seq := p.NextOrderSeq()
				p.PutOrder(models.Order{ID: models.FormatOrderID(seq), Seq: seq})
				return nil
			})
		}()
	}
	wg.Wait()

	require.NoError(t, s.View(est.ID, func(p *Partition) error {
		orders := p.Orders()
		require.Len(t, orders, n)
		for i, o := range orders {
			assert.Equal(t, i+1, o.Seq)
			assert.Equal(t, models.FormatOrderID(i+1), o.ID)
		}
		return nil
	}))
}

func TestGettersReturnCopies(t *testing.T) {
	s := New()
	est := s.MustCreateEstablishment("Cantina", "")

	require.NoError(t, s.Update(est.ID, func(p *Partition) error {
		p.PutOrder(models.Order{ID: "#001", Seq: 1, Items: []models.OrderItem{{Name: "Suco"}}})
		o, _ := p.Order("#001")
		o.Items[0].Prepared = true
		return nil
	}))

	require.NoError(t, s.View(est.ID, func(p *Partition) error {
		o, ok := p.Order("#001")
		require.True(t, ok)
		assert.False(t, o.Items[0].Prepared)
		assert.Equal(t, est.ID, o.EstablishmentID)
		return nil
	}))
}
