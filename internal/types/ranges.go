package types

import (
	"fmt"
	"iter"
	"sync"
)

// RangeFunc produces the elements between two bounds. The sequence must be
// finite and must compute each element only when it is pulled.
type RangeFunc func(low, high any) iter.Seq[any]

// RangeInfo is one range generator.
type RangeInfo struct {
	Bound    TypeID
	Element  TypeID
	Generate RangeFunc
}

// Ranges indexes range generators by bound type.
type Ranges struct {
	types      *Registry
	converters *Converters

	mu    sync.RWMutex
	infos map[TypeID]RangeInfo
}

// NewRanges creates an empty range table.
func NewRanges(types *Registry, converters *Converters) *Ranges {
	return &Ranges{
		types:      types,
		converters: converters,
		infos:      make(map[TypeID]RangeInfo),
	}
}

// Register adds a range generator for its bound type.
func (r *Ranges) Register(info RangeInfo) error {
	if info.Generate == nil {
		return fmt.Errorf("range %s has no generator", info.Bound)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.infos[info.Bound] = info
	return nil
}

// Info returns the generator registered for a bound type.
func (r *Ranges) Info(bound TypeID) (RangeInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.infos[bound]
	return info, ok
}

// Range returns the sequence between low and high. The upper bound is
// converted to the lower bound's type when they differ.
//
// The sequence is lazy and restartable: every iteration calls the generator
// again from the same bounds.
func (r *Ranges) Range(low, high any) (iter.Seq[any], bool) {
	t, ok := r.types.TypeOf(low)
	if !ok {
		return nil, false
	}
	info, ok := r.Info(t.ID)
	if !ok {
		return nil, false
	}
	if r.converters != nil {
		if high, ok = r.converters.Convert(high, t.ID); !ok {
			return nil, false
		}
	}
	return info.Generate(low, high), true
}
