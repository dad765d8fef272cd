package cache

import (
	"fmt"
	"strings"
)

// CacheKey identifies one stats query. Keys are comparable and used directly as map keys.
type CacheKey struct {
	Symbol     string
	Start      string
	End        string
	SampleFile string
	Timeout    float64
	HasTimeout bool
}

// NewCacheKey normalises the symbol so that "msft" and "MSFT" address the same entry.
func NewCacheKey(symbol, start, end, sampleFile string, timeout *float64) CacheKey {
	k := CacheKey{
		Symbol:     strings.ToUpper(strings.TrimSpace(symbol)),
		Start:      strings.TrimSpace(start),
		End:        strings.TrimSpace(end),
		SampleFile: sampleFile,
	}
	if timeout != nil {
		k.Timeout = *timeout
		k.HasTimeout = true
	}
	return k
}

func (k CacheKey) String() string {
	timeout := "none"
	if k.HasTimeout {
		timeout = fmt.Sprintf("%g", k.Timeout)
	}
	sample := k.SampleFile
	if sample == "" {
		sample = "none"
	}
	return fmt.Sprintf("%s:%s:%s:%s:%s", k.Symbol, k.Start, k.End, sample, timeout)
}
