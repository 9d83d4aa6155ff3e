// Package adjacency implements the IS-IS three-way adjacency state machine
// and per-link adjacency database.
package adjacency

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-isis/isisd/codec"
	"github.com/go-isis/isisd/internal/xlog"
	"github.com/go-isis/isisd/metrics"
	"github.com/go-isis/isisd/timer"
)

// State is one of the three adjacency states of ISO 10589 §8.2.5.2.
type State int

const (
	StateDown State = iota
	StateInitializing
	StateUp
)

func (s State) String() string {
	switch s {
	case StateDown:
		return "Down"
	case StateInitializing:
		return "Initializing"
	case StateUp:
		return "Up"
	default:
		return "Unknown"
	}
}

// IIHSnapshot is the subset of a received IIH PDU and its TLVs an adjacency
// needs in order to update itself. The caller (the link's receive path)
// builds this from a decoded PDU before calling Update.
type IIHSnapshot struct {
	SourceID   [6]byte
	SNPA       [6]byte // the sender's MAC, used as the adjacency key on LAN circuits
	HoldTime   uint16
	Priority   uint8
	LANID      [7]byte // zero value on point-to-point circuits
	AreaAddrs  []codec.AreaAddress
	Neighbors  [][6]byte // MACs listed in the received IS Neighbors TLV(s)
}

// StateChangeFunc is invoked whenever an adjacency transitions, so the
// owning link can rerun DIS election or the update process can refresh its
// own LSP's neighbor TLVs.
type StateChangeFunc func(adj *Adjacency, old, new State)

// Adjacency tracks one neighboring router reachable over a circuit.
type Adjacency struct {
	db *LinkDB

	SNPA     [6]byte
	SystemID [6]byte
	LANID    [7]byte

	mu        sync.Mutex
	state     State
	holdTime  uint16
	priority  uint8
	areas     []codec.AreaAddress
	holdTimer *timer.Timer
}

// State returns the adjacency's current state.
func (a *Adjacency) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Priority returns the neighbor's last-advertised DIS priority.
func (a *Adjacency) Priority() uint8 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.priority
}

// Areas returns the neighbor's last-advertised area addresses (Level 1 only).
func (a *Adjacency) Areas() []codec.AreaAddress {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.areas
}

func (a *Adjacency) String() string {
	return fmt.Sprintf("Adjacency(snpa:%x, sysid:%x)", a.SNPA, a.SystemID)
}

// update applies a freshly received IIH to the adjacency, restarting the
// hold timer and recomputing state from the neighbor TLV content: the
// adjacency reaches Up only once the neighbor's IIH lists our own MAC,
// confirming two-way visibility (ISO 10589 §8.2.5.2).
func (a *Adjacency) update(ourMAC [6]byte, ihh IIHSnapshot) bool {
	a.mu.Lock()

	a.holdTime = ihh.HoldTime
	priorityChanged := a.priority != ihh.Priority
	a.priority = ihh.Priority
	if a.db.lindex == 0 {
		a.areas = ihh.AreaAddrs
	}

	oldState := a.state
	newState := StateInitializing
	for _, nbr := range ihh.Neighbors {
		if nbr == ourMAC {
			newState = StateUp
			break
		}
	}
	a.state = newState
	holdTime := a.holdTime
	a.mu.Unlock()

	a.holdTimer.Start(time.Duration(holdTime) * time.Second)

	stateChanged := newState != oldState
	if stateChanged {
		xlog.Debugf("adj", "%s: %s -> %s", a, oldState, newState)
		metrics.AdjacencyTransitions.WithLabelValues(oldState.String(), newState.String()).Inc()
		a.db.updateUpGauge()
		if a.db.onStateChange != nil {
			a.db.onStateChange(a, oldState, newState)
		}
	}

	// Only transitions into or out of Up affect DIS election; a priority
	// change among already-up neighbors can change the outcome just as much.
	upChanged := stateChanged && (newState == StateUp || oldState == StateUp)
	return upChanged || (priorityChanged && newState == StateUp)
}

// expire is invoked by the hold timer when no IIH has refreshed the
// adjacency within its hold time.
func (a *Adjacency) expire() {
	a.db.expireAdjacency(a)
}

// LinkDB holds every adjacency formed over one circuit at one level.
type LinkDB struct {
	lindex        int // 0 = Level 1, 1 = Level 2
	ourMAC        [6]byte
	onStateChange StateChangeFunc

	mu      sync.RWMutex
	bySNPA  map[[6]byte]*Adjacency
	list    []*Adjacency
	timers  *timer.Heap
}

// NewLinkDB creates an empty adjacency database for one circuit/level,
// using ourMAC to test for two-way visibility and invoking onStateChange
// on every adjacency state change.
func NewLinkDB(lindex int, ourMAC [6]byte, onStateChange StateChangeFunc) *LinkDB {
	return &LinkDB{
		lindex:        lindex,
		ourMAC:        ourMAC,
		onStateChange: onStateChange,
		bySNPA:        make(map[[6]byte]*Adjacency),
		timers:        timer.NewHeap(fmt.Sprintf("adjacency-L%d", lindex+1)),
	}
}

// updateUpGauge recomputes the exported Up-adjacency-count gauge for this
// database's level. Called under no lock held by the caller; it takes its
// own read lock.
func (db *LinkDB) updateUpGauge() {
	metrics.AdjacencyUpCount.WithLabelValues(strconv.Itoa(db.lindex + 1)).Set(float64(len(db.UpIDs())))
}

// UpIDs returns the system IDs of every adjacency currently Up, used to
// populate a pseudonode LSP's IS Neighbors / IS Reachability TLVs.
func (db *LinkDB) UpIDs() [][6]byte {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var out [][6]byte
	for _, a := range db.list {
		if a.State() == StateUp {
			out = append(out, a.SystemID)
		}
	}
	return out
}

// HasUpAdjacency reports whether snpa identifies a currently-Up adjacency.
func (db *LinkDB) HasUpAdjacency(snpa [6]byte) bool {
	db.mu.RLock()
	a, ok := db.bySNPA[snpa]
	db.mu.RUnlock()
	return ok && a.State() == StateUp
}

// All returns every adjacency in the database, Up or not.
func (db *LinkDB) All() []*Adjacency {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]*Adjacency, len(db.list))
	copy(out, db.list)
	return out
}

// UpdateAdjacency processes a received IIH, creating a new Adjacency keyed
// on the sender's SNPA (MAC) if none exists yet, or refreshing the existing
// one. It returns true if DIS election should be rerun as a result: the
// adjacency moved into or out of Up, or an Up neighbor's priority changed.
func (db *LinkDB) UpdateAdjacency(ihh IIHSnapshot) bool {
	db.mu.Lock()
	a, ok := db.bySNPA[ihh.SNPA]
	if !ok {
		a = &Adjacency{
			db:       db,
			SNPA:     ihh.SNPA,
			SystemID: ihh.SourceID,
			LANID:    ihh.LANID,
			state:    StateDown,
		}
		a.holdTimer = db.timers.NewTimer(0, a.expire)
		db.bySNPA[ihh.SNPA] = a
		db.list = append(db.list, a)
		db.mu.Unlock()
		return a.update(db.ourMAC, ihh)
	}
	db.mu.Unlock()

	if a.SystemID != ihh.SourceID {
		// System ID changed underneath an existing SNPA: ignore, per
		// ISO 10589, rather than silently reassigning identity.
		return false
	}
	return a.update(db.ourMAC, ihh)
}

// expireAdjacency removes adj from the database, invoking onStateChange if
// it was Up.
func (db *LinkDB) expireAdjacency(adj *Adjacency) {
	wasUp := adj.State() == StateUp

	db.mu.Lock()
	delete(db.bySNPA, adj.SNPA)
	for i, a := range db.list {
		if a == adj {
			db.list = append(db.list[:i], db.list[i+1:]...)
			break
		}
	}
	db.mu.Unlock()

	if wasUp {
		metrics.AdjacencyTransitions.WithLabelValues(StateUp.String(), StateDown.String()).Inc()
		db.updateUpGauge()
		if db.onStateChange != nil {
			db.onStateChange(adj, StateUp, StateDown)
		}
	}
}
