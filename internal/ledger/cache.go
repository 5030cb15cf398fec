package ledger

import (
	"sync"

	"github.com/shopspring/decimal"
)

type cacheKey struct {
	viewerID       string
	counterpartyID string
	groupID        string
}

// Cache maintains running net balances keyed by (viewer, counterparty,
// group), updated incrementally as source records change. It exists for the
// live regime where the surrounding system feeds create/update/delete events
// instead of refetching the whole ledger.
//
// Apply is idempotent per source ID: the cache remembers the entries
// currently applied for each source and replaces them, so replaying the same
// event, updating a record, or deleting it (empty entry set) all land on the
// same balances a full recomputation would produce.
type Cache struct {
	mu       sync.Mutex
	balances map[cacheKey]decimal.Decimal
	applied  map[string][]Entry

	// srcMu serializes Apply calls per source ID so concurrent deliveries
	// for the same record cannot interleave their subtract/add cycles.
	srcMu   map[string]*sync.Mutex
	srcMuMu sync.Mutex
}

// NewCache creates an empty balance cache.
func NewCache() *Cache {
	return &Cache{
		balances: make(map[cacheKey]decimal.Decimal),
		applied:  make(map[string][]Entry),
		srcMu:    make(map[string]*sync.Mutex),
	}
}

func (c *Cache) sourceLock(sourceID string) *sync.Mutex {
	c.srcMuMu.Lock()
	defer c.srcMuMu.Unlock()
	if _, ok := c.srcMu[sourceID]; !ok {
		c.srcMu[sourceID] = &sync.Mutex{}
	}
	return c.srcMu[sourceID]
}

// releaseSourceLock drops the per-source mutex once the source's entries are
// gone, so deleted records do not pin a mutex forever. A later Apply for the
// same ID allocates a fresh one; both paths stay atomic under c.mu.
func (c *Cache) releaseSourceLock(sourceID string) {
	c.srcMuMu.Lock()
	defer c.srcMuMu.Unlock()
	delete(c.srcMu, sourceID)
}

// Apply replaces the cached contribution of one source record with the given
// entries. Pass the full normalized entry set for the record on create and
// update, and nil on delete. All entries must carry the given source ID.
func (c *Cache) Apply(sourceID string, entries []Entry) {
	lock := c.sourceLock(sourceID)
	lock.Lock()
	defer lock.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.applied[sourceID] {
		c.add(e, e.Amount.Neg())
	}

	if len(entries) == 0 {
		delete(c.applied, sourceID)
		c.releaseSourceLock(sourceID)
		return
	}
	stored := make([]Entry, len(entries))
	copy(stored, entries)
	c.applied[sourceID] = stored
	for _, e := range stored {
		c.add(e, e.Amount)
	}
}

// add records one entry's contribution to both endpoints' views.
func (c *Cache) add(e Entry, amount decimal.Decimal) {
	to := cacheKey{viewerID: e.ToUser, counterpartyID: e.FromUser, groupID: e.GroupID}
	from := cacheKey{viewerID: e.FromUser, counterpartyID: e.ToUser, groupID: e.GroupID}
	c.set(to, c.balances[to].Add(amount))
	c.set(from, c.balances[from].Sub(amount))
}

func (c *Cache) set(key cacheKey, net decimal.Decimal) {
	if net.IsZero() {
		delete(c.balances, key)
		return
	}
	c.balances[key] = net
}

// Balance returns the viewer's net versus one counterparty in one scope
// (empty groupID = direct).
func (c *Cache) Balance(viewerID, counterpartyID, groupID string) decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balances[cacheKey{viewerID: viewerID, counterpartyID: counterpartyID, groupID: groupID}]
}

// DirectBalances returns the viewer's non-zero direct balances per
// counterparty, matching AggregateDirect over the same records.
func (c *Cache) DirectBalances(viewerID string) map[string]decimal.Decimal {
	return c.scopeBalances(viewerID, "")
}

// GroupBalances returns the viewer's non-zero balances within one group.
func (c *Cache) GroupBalances(viewerID, groupID string) map[string]decimal.Decimal {
	return c.scopeBalances(viewerID, groupID)
}

func (c *Cache) scopeBalances(viewerID, groupID string) map[string]decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make(map[string]decimal.Decimal)
	for key, net := range c.balances {
		if key.viewerID == viewerID && key.groupID == groupID {
			result[key.counterpartyID] = net
		}
	}
	return result
}

// Counterparties returns every user the viewer has any cached balance with,
// across direct and group scopes.
func (c *Cache) Counterparties(viewerID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]bool)
	var ids []string
	for key := range c.balances {
		if key.viewerID == viewerID && !seen[key.counterpartyID] {
			seen[key.counterpartyID] = true
			ids = append(ids, key.counterpartyID)
		}
	}
	return ids
}

// Len reports the number of non-zero cached balance cells.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.balances)
}
