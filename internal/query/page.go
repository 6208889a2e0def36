package query

import "github.com/gestaozabele/zeladoria/internal/occurrence"

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Page recorta a listagem. Limite ausente usa o padrão e acima do teto é
// reduzido a MaxLimit.
func Page(items []occurrence.Occurrence, limit, offset int) []occurrence.Occurrence {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []occurrence.Occurrence{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
