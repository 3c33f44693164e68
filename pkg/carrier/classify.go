package carrier

import (
	"strconv"
	"strings"
)

// Free-text labels the carrier uses for operational status, including the
// Ukrainian and Russian locale variants seen in production responses.
var (
	workingLabels = []string{"working", "працює", "работает"}
	closedLabels  = []string{"closed", "non-working", "не працює", "не работает"}
)

// Keyword fragments for classifying the free-text warehouse type.
var (
	lockerKeywords = []string{"поштомат", "почтомат", "poshtomat", "parcel locker"}
	cargoKeywords  = []string{"вантаж", "грузов", "cargo"}
	branchKeywords = []string{"відділення", "отделение", "branch", "post office"}
)

// ClassifyStatus normalizes the carrier's free-text status into a typed value.
// The decision order reproduces the production client's behavior, including
// the permissive final default: a warehouse with no conclusive signal is
// treated as working so listings match what the storefront showed.
//
//  1. Status label says working -> working.
//  2. Status label says closed -> closed.
//  3. Both weight limits are exactly zero -> closed, unless the type label
//     names a poshtomat (lockers report zero limits while open).
//  4. Either weight limit is positive -> working.
//  5. Type label names a poshtomat/pickup point -> working.
//  6. Otherwise -> working.
func ClassifyStatus(statusLabel, maxWeightPerPiece, maxWeightTotal, typeLabel string) WarehouseStatus {
	status := strings.ToLower(strings.TrimSpace(statusLabel))
	if containsAny(status, workingLabels) && !containsAny(status, closedLabels) {
		return StatusWorking
	}
	if containsAny(status, closedLabels) {
		return StatusClosed
	}

	perPiece, perPieceOK := parseWeight(maxWeightPerPiece)
	total, totalOK := parseWeight(maxWeightTotal)

	if perPieceOK && totalOK && perPiece == 0 && total == 0 {
		// Parcel lockers report zero weight limits while operating normally;
		// the keyword wins over the zero-weight signal.
		if containsAny(strings.ToLower(typeLabel), lockerKeywords) {
			return StatusWorking
		}
		return StatusClosed
	}
	if (perPieceOK && perPiece > 0) || (totalOK && total > 0) {
		return StatusWorking
	}
	if containsAny(strings.ToLower(typeLabel), lockerKeywords) {
		return StatusWorking
	}

	return StatusWorking
}

// ClassifyKind normalizes the carrier's free-text warehouse type.
func ClassifyKind(typeLabel string) WarehouseKind {
	label := strings.ToLower(typeLabel)
	switch {
	case containsAny(label, lockerKeywords):
		return KindParcelLocker
	case containsAny(label, cargoKeywords):
		return KindCargo
	case containsAny(label, branchKeywords):
		return KindPostOffice
	default:
		return KindOther
	}
}

// Matches reports whether a warehouse kind passes the listing filter.
func (f KindFilter) Matches(kind WarehouseKind) bool {
	switch f {
	case FilterAll, "":
		return true
	case FilterPostOffice:
		return kind == KindPostOffice
	case FilterCargo:
		return kind == KindCargo
	case FilterParcelLocker:
		return kind == KindParcelLocker
	default:
		return false
	}
}

// FilterWarehouses narrows a cached listing by kind and by a case-insensitive
// free-text match against the description or short address. It never refetches.
func FilterWarehouses(list []Warehouse, f KindFilter, query string) []Warehouse {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Warehouse, 0, len(list))
	for _, w := range list {
		if !f.Matches(w.Kind) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(w.Description), q) &&
			!strings.Contains(strings.ToLower(w.ShortAddress), q) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// FullAddress formats a warehouse for display:
// "{description} ({short address})", without the parenthetical when the
// short address is absent.
func (w *Warehouse) FullAddress() string {
	if strings.TrimSpace(w.ShortAddress) == "" {
		return w.Description
	}
	return w.Description + " (" + w.ShortAddress + ")"
}

// Label formats a city for display: "{name}, {area}", without the suffix
// when the area is absent.
func (c *City) Label() string {
	if strings.TrimSpace(c.Area) == "" {
		return c.Name
	}
	return c.Name + ", " + c.Area
}

// ParseWeight parses a carrier weight field, which arrives either as a
// number or as a numeric string (often "0").
func ParseWeight(raw string) (float64, bool) {
	return parseWeight(raw)
}

func parseWeight(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
