package catalog

import (
	"context"
	"errors"
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rushikeshnagarkar/balutedaar-app/pkg/db/models"
)

// UnknownComboName is the sentinel returned for ids absent from both the
// dynamic table and the fallback catalog. Resolve never fails for an unknown
// id.
const UnknownComboName = "Unknown Combo"

// Entry is a resolved combo. Sellable is false for the sentinel and for
// zero-priced entries.
type Entry struct {
	ComboID string
	Name    string
	Price   decimal.Decimal
}

// Sellable reports whether the entry may be added to a cart.
func (e Entry) Sellable() bool {
	return e.Name != UnknownComboName && e.Price.IsPositive()
}

// fallbackCombos is the static catalog used when a combo id has no row in
// the combos table.
var fallbackCombos = map[string]Entry{
	"D-9011":     {ComboID: "D-9011", Name: "Amaranth Combo", Price: decimal.RequireFromString("1.00")},
	"A-9011":     {ComboID: "A-9011", Name: "Methi Combo", Price: decimal.RequireFromString("1.00")},
	"E-9011":     {ComboID: "E-9011", Name: "Dill Combo", Price: decimal.RequireFromString("1.00")},
	"B-9011":     {ComboID: "B-9011", Name: "Kanda Paat Combo", Price: decimal.RequireFromString("1.00")},
	"C-9011":     {ComboID: "C-9011", Name: "Palak Combo", Price: decimal.RequireFromString("1.00")},
	"xzwqdyrcl9": {ComboID: "xzwqdyrcl9", Name: "Spinach - पालक", Price: decimal.RequireFromString("1.00")},
	"7e8sbb1xg8": {ComboID: "7e8sbb1xg8", Name: "Fenugreek - मेथी", Price: decimal.RequireFromString("1.00")},
	"dm4ngkc9xr": {ComboID: "dm4ngkc9xr", Name: "Amaranth - लाल माठ", Price: decimal.RequireFromString("1.00")},
}

// Resolver maps combo ids to names and prices, preferring the dynamic
// combos table over the static fallback catalog.
type Resolver struct {
	db *gorm.DB
}

// NewResolver constructs a resolver bound to the provided GORM DB.
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// WithTx returns a resolver bound to the given transaction.
func (r *Resolver) WithTx(tx *gorm.DB) *Resolver {
	return &Resolver{db: tx}
}

// Resolve looks the combo up in the dynamic table first, then the fallback
// catalog. Unknown ids yield the sentinel entry, never an error.
func (r *Resolver) Resolve(ctx context.Context, comboID string) Entry {
	var combo models.Combo
	err := r.db.WithContext(ctx).First(&combo, "combo_id = ?", comboID).Error
	if err == nil {
		return Entry{ComboID: comboID, Name: combo.Name, Price: combo.Price}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		// table unreachable, the static catalog still serves
		if entry, ok := fallbackCombos[comboID]; ok {
			return entry
		}
		return Entry{ComboID: comboID, Name: UnknownComboName, Price: decimal.Zero}
	}
	if entry, ok := fallbackCombos[comboID]; ok {
		return entry
	}
	return Entry{ComboID: comboID, Name: UnknownComboName, Price: decimal.Zero}
}

// ComboIDs returns every combo id known to the catalog, dynamic rows first,
// in a stable order. Used to populate the product-list message.
func (r *Resolver) ComboIDs(ctx context.Context) []string {
	seen := make(map[string]bool, len(fallbackCombos))
	var ids []string

	var combos []models.Combo
	if err := r.db.WithContext(ctx).Order("combo_id").Find(&combos).Error; err == nil {
		for _, c := range combos {
			if !seen[c.ComboID] {
				seen[c.ComboID] = true
				ids = append(ids, c.ComboID)
			}
		}
	}

	fallback := make([]string, 0, len(fallbackCombos))
	for id := range fallbackCombos {
		if !seen[id] {
			fallback = append(fallback, id)
		}
	}
	sort.Strings(fallback)
	return append(ids, fallback...)
}
