package pseudonym

import (
	"fmt"
	"sync"

	"callops-api/internal/models"
)

// defaultPool is the fixed list of fictitious company display names. Once
// every entry has been handed out the allocation wraps, so two real
// companies may share a displayed name; identity stays distinct via the
// numeric company id.
var defaultPool = []string{
	"Acme RV Sales Co.", "Global RV Center", "Premier Service Hub",
	"Coastal Repair Group", "Metro RV Dealership", "Apex Service Center",
	"Summit RV Services", "Titan Maintenance Co.", "Stellar Manufacturing Co.",
	"Platinum Motors Inc.", "Horizon Camper Co.", "Liberty RV Group",
	"Pioneer Coach Works", "Cascade RV Industries", "Sterling Motor Corp.",
	"Southern Comfort RV", "Atlas Coach Co.", "Evergreen RV Group",
	"Monarch Motorhomes", "Voyager RV Inc.", "Elite Coach Systems",
	"Prestige Luxury RV", "Valley View RV", "Mountain Ridge RV",
	"Trailhead RV Co.", "Frontier Manufacturing", "Redwood RV Sales",
	"Heritage RV Center", "Lakeside RV Group", "Discovery RV Services",
	"Keystone West RV", "Navigator RV Co.", "Riverside Coach Inc.",
	"Pacific Coast Campers", "Northwest RV Mfg.", "Tennessee Trail RV",
	"Northern Lights RV", "Maple Leaf Motorhomes", "Great White North RV",
	"Midwest Custom RV", "Heartland Coach Co.", "Phoenix RV Works",
	"Dynamic RV Corp.", "Midwest Auto Designs", "Desert Sun RV",
	"Cascade Coach Works", "Freedom Trail RV", "Buckeye RV Co.",
	"Compact Camper Co.", "Hoosier RV Sales", "Precision RV Tech",
	"Wanderlust RV Co.", "Sunset RV Sales", "Keystone East RV",
	"Lone Star RV Co.", "Golden State Campers", "North Star Trailers",
	"Gulf Coast RV", "Adventure Pod RV", "Sunset Camper Co.",
	"Outback RV Sales", "RV Compliance Solutions", "National RV Inspections",
	"RV Warranty Services", "Extended RV Protection", "Premier RV Claims",
}

type entry struct {
	id   int
	name string
}

// Cache maps real company names to stable fictitious display names for the
// lifetime of the process. Each missing-name occurrence is tagged with an
// incrementing counter so distinct anonymous companies never merge.
type Cache struct {
	mu      sync.Mutex
	pool    []string
	byKey   map[string]entry
	missing int
}

func NewCache() *Cache {
	return &Cache{
		pool:  defaultPool,
		byKey: make(map[string]entry),
	}
}

// Assign returns the stable company id and display pseudonym for realName.
// The same real name always yields the same pair; a missing or placeholder
// name yields a fresh identity on every call.
func (c *Cache) Assign(realName string) (int, string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := realName
	if models.MissingValue(realName) {
		c.missing++
		key = fmt.Sprintf("__missing_%d", c.missing)
	}

	if e, ok := c.byKey[key]; ok {
		return e.id, e.name
	}

	e := entry{
		id:   len(c.byKey) + 1,
		name: c.pool[len(c.byKey)%len(c.pool)],
	}
	c.byKey[key] = e
	return e.id, e.name
}

// Reset clears all mappings and the allocation counters. Must not be called
// mid-way through normalizing a single collection.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKey = make(map[string]entry)
	c.missing = 0
}

// PoolSize is the wrap boundary: the number of distinct keys that receive
// unique pseudonyms before display names start repeating.
func (c *Cache) PoolSize() int {
	return len(c.pool)
}
