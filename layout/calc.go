package layout

import "sync"

// Calculator computes and caches Info per Struct.
type Calculator struct {
	cache map[*Struct]Info
	mu    sync.RWMutex
}

func NewCalculator() *Calculator {
	return &Calculator{
		cache: make(map[*Struct]Info),
	}
}

var defaultCalculator = NewCalculator()

// Of returns the Info for s using the shared calculator.
func Of(s *Struct) Info {
	return defaultCalculator.Calculate(s)
}

func (c *Calculator) Calculate(s *Struct) Info {
	c.mu.RLock()
	cached, ok := c.cache[s]
	c.mu.RUnlock()
	if ok {
		return cached
	}

	info := Info{FieldOffs: make(map[string]uint32, len(s.Fields))}
	offset := uint32(0)
	for _, f := range s.Fields {
		info.FieldOffs[f.Name] = offset
		switch f.Kind {
		case KindStruct:
			offset += c.Calculate(f.Struct).Size
		case KindString:
			info.Strings++
			offset += SlotSize
		default:
			offset += SlotSize
		}
	}
	info.Size = offset

	c.mu.Lock()
	c.cache[s] = info
	c.mu.Unlock()
	return info
}
