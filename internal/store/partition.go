package store

import (
	"maps"
	"sort"
	"time"

	"pos-backend/internal/models"
)

// Partition is one establishment's data. It is only reachable through
// Store.Update and Store.View, so the establishment lock is always held.
// Getters return copies; writes go through the Put/Append methods.
type Partition struct {
	store *Store
	est   models.Establishment

	products     map[uint]*models.Product
	transactions []models.InventoryTransaction
	orders       map[string]*models.Order
	orderSeq     int
}

type snapshot struct {
	products     map[uint]*models.Product
	transactions int
	orders       map[string]*models.Order
	orderSeq     int
}

func newPartition(s *Store, est models.Establishment) *Partition {
	return &Partition{
		store:    s,
		est:      est,
		products: make(map[uint]*models.Product),
		orders:   make(map[string]*models.Order),
	}
}

// Stored values are replaced, never mutated in place, so shallow map copies are enough.
func (p *Partition) snapshot() snapshot {
	return snapshot{
		products:     maps.Clone(p.products),
		transactions: len(p.transactions),
		orders:       maps.Clone(p.orders),
		orderSeq:     p.orderSeq,
	}
}

func (p *Partition) restore(s snapshot) {
	p.products = s.products
	p.transactions = p.transactions[:s.transactions]
	p.orders = s.orders
	p.orderSeq = s.orderSeq
}

func (p *Partition) EstablishmentID() uint { return p.est.ID }

func (p *Partition) Now() time.Time { return p.store.now() }

// Products

func (p *Partition) NextProductID() uint {
	return uint(p.store.productSeq.Add(1))
}

func (p *Partition) Product(id uint) (models.Product, bool) {
	prod, ok := p.products[id]
	if !ok {
		return models.Product{}, false
	}
	return *prod, true
}

func (p *Partition) Products() []models.Product {
	out := make([]models.Product, 0, len(p.products))
	for _, prod := range p.products {
		out = append(out, *prod)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (p *Partition) PutProduct(prod models.Product) {
	prod.EstablishmentID = p.est.ID
	p.products[prod.ID] = &prod
}

func (p *Partition) DeleteProduct(id uint) {
	delete(p.products, id)
}

// ProductReferenced reports whether any order line points at the product.
func (p *Partition) ProductReferenced(id uint) bool {
	for _, o := range p.orders {
		for _, it := range o.Items {
			if it.ProductID != nil && *it.ProductID == id {
				return true
			}
		}
	}
	return false
}

// Inventory transactions

func (p *Partition) NextTransactionID() uint {
	return uint(p.store.txSeq.Add(1))
}

func (p *Partition) AppendTransaction(tx models.InventoryTransaction) {
	tx.EstablishmentID = p.est.ID
	p.transactions = append(p.transactions, tx)
}

// Transactions returns the ledger in insertion order.
func (p *Partition) Transactions() []models.InventoryTransaction {
	out := make([]models.InventoryTransaction, len(p.transactions))
	copy(out, p.transactions)
	return out
}

// Orders

func (p *Partition) NextOrderSeq() int {
	p.orderSeq++
	return p.orderSeq
}

func (p *Partition) Order(id string) (models.Order, bool) {
	o, ok := p.orders[id]
	if !ok {
		return models.Order{}, false
	}
	return o.Clone(), true
}

func (p *Partition) Orders() []models.Order {
	out := make([]models.Order, 0, len(p.orders))
	for _, o := range p.orders {
		out = append(out, o.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func (p *Partition) PutOrder(o models.Order) {
	o.EstablishmentID = p.est.ID
	c := o.Clone()
	p.orders[c.ID] = &c
}
