package matcher

import (
	"strconv"
	"strings"

	"github.com/atenea-cash/atenea-backend/internal/domain/model"
)

// Index holds lookup structures over one window of wallet movements,
// keyed by (normalized name, amount) and (normalized tax id, amount).
//
// An index is built once per batch run from the movements inside the run's
// time span and is never mutated afterwards. Movements with an empty
// normalized name or tax id are simply absent from the corresponding map,
// and outflows are not indexed at all.
type Index struct {
	byNameAmount  map[string][]*model.Movement
	byTaxIDAmount map[string][]*model.Movement
}

// BuildIndex constructs an Index over the supplied movements. Construction
// is linear in the number of movements; bucket order preserves input order.
func BuildIndex(movements []*model.Movement) *Index {
	ix := &Index{
		byNameAmount:  make(map[string][]*model.Movement),
		byTaxIDAmount: make(map[string][]*model.Movement),
	}

	for _, m := range movements {
		if !m.Inflow() {
			continue
		}
		if name := strings.TrimSpace(m.NameNorm); name != "" {
			k := bucketKey(name, m.Amount)
			ix.byNameAmount[k] = append(ix.byNameAmount[k], m)
		}
		if taxID := strings.TrimSpace(m.TaxIDNorm); taxID != "" {
			k := bucketKey(taxID, m.Amount)
			ix.byTaxIDAmount[k] = append(ix.byTaxIDAmount[k], m)
		}
	}

	return ix
}

// NameBucket returns the movements sharing the given normalized name and
// amount, in input order. The returned slice must not be modified.
func (ix *Index) NameBucket(nameNorm string, amount float64) []*model.Movement {
	return ix.byNameAmount[bucketKey(nameNorm, amount)]
}

// TaxIDBucket returns the movements sharing the given normalized tax id and
// amount, in input order. The returned slice must not be modified.
func (ix *Index) TaxIDBucket(taxIDNorm string, amount float64) []*model.Movement {
	return ix.byTaxIDAmount[bucketKey(taxIDNorm, amount)]
}

func bucketKey(norm string, amount float64) string {
	return norm + "|" + strconv.FormatFloat(amount, 'f', -1, 64)
}
