// Package memstore is an in-memory implementation of transfer.Store for tests
// and local experiments. Every unit of work runs under one mutex against the
// live state; a copy taken before the callback is restored if it fails.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/erazemk/bloodbank/internal/model"
	"github.com/erazemk/bloodbank/internal/transfer"
)

// Operation names accepted by FailOn.
const (
	OpCredit    = "credit"
	OpDebit     = "debit"
	OpSetStatus = "set_status"
	OpAppend    = "append"
)

type inventoryKey struct {
	hospitalID int64
	bloodType  model.BloodType
}

type state struct {
	hospitals    map[int64]string
	inventory    map[inventoryKey]model.InventoryEntry
	requests     map[int64]model.BloodRequest
	donations    []model.Donation
	transactions []model.Transaction
	nextID       int64
}

func newState() state {
	return state{
		hospitals: map[int64]string{},
		inventory: map[inventoryKey]model.InventoryEntry{},
		requests:  map[int64]model.BloodRequest{},
	}
}

func (s state) clone() state {
	c := state{
		hospitals:    make(map[int64]string, len(s.hospitals)),
		inventory:    make(map[inventoryKey]model.InventoryEntry, len(s.inventory)),
		requests:     make(map[int64]model.BloodRequest, len(s.requests)),
		donations:    append([]model.Donation(nil), s.donations...),
		transactions: append([]model.Transaction(nil), s.transactions...),
		nextID:       s.nextID,
	}
	for k, v := range s.hospitals {
		c.hospitals[k] = v
	}
	for k, v := range s.inventory {
		c.inventory[k] = v
	}
	for k, v := range s.requests {
		c.requests[k] = copyRequest(v)
	}
	return c
}

func copyRequest(r model.BloodRequest) model.BloodRequest {
	if r.SourceHospitalID != nil {
		id := *r.SourceHospitalID
		r.SourceHospitalID = &id
	}
	return r
}

// Store is a mutex-guarded in-memory ledger and request table.
type Store struct {
	mu       sync.Mutex
	state    state
	failures map[string]error
}

var _ transfer.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		state:    newState(),
		failures: map[string]error{},
	}
}

// AddHospital registers a hospital with zero stock of every blood type and
// returns its ID.
func (s *Store) AddHospital(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.nextID++
	id := s.state.nextID
	s.state.hospitals[id] = name
	now := time.Now()
	for _, bt := range model.BloodTypes {
		s.state.inventory[inventoryKey{id, bt}] = model.InventoryEntry{
			HospitalID:   id,
			BloodType:    bt,
			LastUpdated:  now,
			HospitalName: name,
		}
	}
	return id
}

// SetUnits overwrites a hospital's stock of one blood type.
func (s *Store) SetUnits(hospitalID int64, bloodType model.BloodType, units int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := inventoryKey{hospitalID, bloodType}
	e := s.state.inventory[k]
	e.HospitalID = hospitalID
	e.BloodType = bloodType
	e.UnitsAvailable = units
	e.LastUpdated = time.Now()
	e.HospitalName = s.state.hospitals[hospitalID]
	s.state.inventory[k] = e
}

// Units returns a hospital's stock of one blood type, or 0 if there is no entry.
func (s *Store) Units(hospitalID int64, bloodType model.BloodType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.inventory[inventoryKey{hospitalID, bloodType}].UnitsAvailable
}

// Request returns a copy of a stored request.
func (s *Store) Request(id int64) (model.BloodRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.state.requests[id]
	return copyRequest(r), ok
}

// Transactions returns the audit log in insertion order.
func (s *Store) Transactions() []model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Transaction(nil), s.state.transactions...)
}

// Donations returns recorded donations in insertion order.
func (s *Store) Donations() []model.Donation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Donation(nil), s.state.donations...)
}

// FailOn makes the next call of the named operation return err. The failure
// fires once.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// InTx runs fn with exclusive access to the store. If fn returns an error the
// state is restored to what it was before the call.
func (s *Store) InTx(ctx context.Context, fn func(transfer.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.state.clone()
	if err := fn(&memTx{s: s}); err != nil {
		s.state = saved
		return err
	}
	return nil
}

// ListInventory returns a hospital's inventory ordered by blood type.
func (s *Store) ListInventory(ctx context.Context, hospitalID int64) ([]model.InventoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []model.InventoryEntry
	for k, e := range s.state.inventory {
		if k.hospitalID == hospitalID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].BloodType < entries[j].BloodType })
	return entries, nil
}

// memTx operates on the live state. The caller holds s.mu.
type memTx struct {
	s *Store
}

func (t *memTx) injected(op string) error {
	if err, ok := t.s.failures[op]; ok {
		delete(t.s.failures, op)
		return err
	}
	return nil
}

func (t *memTx) HospitalExists(ctx context.Context, id int64) (bool, error) {
	_, ok := t.s.state.hospitals[id]
	return ok, nil
}

func (t *memTx) GetRequest(ctx context.Context, id int64) (*model.BloodRequest, error) {
	r, ok := t.s.state.requests[id]
	if !ok {
		return nil, fmt.Errorf("%w: blood request %d", model.ErrNotFound, id)
	}
	r = copyRequest(r)
	r.RequestingHospitalName = t.s.state.hospitals[r.RequestingHospitalID]
	if r.SourceHospitalID != nil {
		r.SourceHospitalName = t.s.state.hospitals[*r.SourceHospitalID]
	}
	return &r, nil
}

func (t *memTx) CreateRequest(ctx context.Context, req *model.BloodRequest) (int64, error) {
	t.s.state.nextID++
	r := copyRequest(*req)
	r.ID = t.s.state.nextID
	t.s.state.requests[r.ID] = r
	return r.ID, nil
}

func (t *memTx) SetRequestStatus(ctx context.Context, id int64, from, to model.RequestStatus, sourceHospitalID *int64, at time.Time) error {
	if err := t.injected(OpSetStatus); err != nil {
		return err
	}
	r, ok := t.s.state.requests[id]
	if !ok || r.Status != from {
		return fmt.Errorf("%w: blood request %d is no longer %s", model.ErrInvalidTransition, id, from)
	}
	r.Status = to
	if sourceHospitalID != nil {
		src := *sourceHospitalID
		r.SourceHospitalID = &src
	}
	r.UpdatedAt = at
	t.s.state.requests[id] = r
	return nil
}

func (t *memTx) Credit(ctx context.Context, hospitalID int64, bloodType model.BloodType, units int, at time.Time) error {
	if err := t.injected(OpCredit); err != nil {
		return err
	}
	if units <= 0 {
		return fmt.Errorf("%w: credit units must be positive, got %d", model.ErrValidation, units)
	}
	k := inventoryKey{hospitalID, bloodType}
	e := t.s.state.inventory[k]
	if !model.CanCredit(e.UnitsAvailable, units) {
		return fmt.Errorf("%w: hospital %d holds %d units of %s, crediting %d would exceed %d",
			model.ErrValidation, hospitalID, e.UnitsAvailable, bloodType, units, model.MaxStockUnits)
	}
	e.HospitalID = hospitalID
	e.BloodType = bloodType
	e.HospitalName = t.s.state.hospitals[hospitalID]
	e.UnitsAvailable += units
	e.LastUpdated = at
	t.s.state.inventory[k] = e
	return nil
}

func (t *memTx) Debit(ctx context.Context, hospitalID int64, bloodType model.BloodType, units int, at time.Time) error {
	if err := t.injected(OpDebit); err != nil {
		return err
	}
	if units <= 0 {
		return fmt.Errorf("%w: debit units must be positive, got %d", model.ErrValidation, units)
	}
	k := inventoryKey{hospitalID, bloodType}
	e, ok := t.s.state.inventory[k]
	if !ok || e.UnitsAvailable < units {
		return fmt.Errorf("%w: hospital %d has %d units of %s, need %d",
			model.ErrInsufficientStock, hospitalID, e.UnitsAvailable, bloodType, units)
	}
	e.UnitsAvailable -= units
	e.LastUpdated = at
	t.s.state.inventory[k] = e
	return nil
}

func (t *memTx) CreateDonation(ctx context.Context, d *model.Donation) (int64, error) {
	t.s.state.nextID++
	donation := *d
	donation.ID = t.s.state.nextID
	t.s.state.donations = append(t.s.state.donations, donation)
	return donation.ID, nil
}

func (t *memTx) AppendTransaction(ctx context.Context, tr *model.Transaction) error {
	if err := t.injected(OpAppend); err != nil {
		return err
	}
	t.s.state.nextID++
	entry := *tr
	entry.ID = t.s.state.nextID
	t.s.state.transactions = append(t.s.state.transactions, entry)
	return nil
}
