package store

// Memory is the map-backed default backend.
type Memory struct {
	m map[string][]byte
}

// NewMemory returns an empty memory backend.
func NewMemory() *Memory {
	return &Memory{m: make(map[string][]byte)}
}

func (b *Memory) Get(key []byte) ([]byte, bool, error) {
	v, ok := b.m[string(key)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte{}, v...), true, nil
}

func (b *Memory) Put(key, value []byte) error {
	b.m[string(key)] = append([]byte{}, value...)
	return nil
}

func (b *Memory) Delete(key []byte) error {
	delete(b.m, string(key))
	return nil
}

func (b *Memory) Clear() error {
	clear(b.m)
	return nil
}

func (b *Memory) Entries() ([]KV, error) {
	out := make([]KV, 0, len(b.m))
	for k, v := range b.m {
		out = append(out, KV{Key: []byte(k), Value: append([]byte{}, v...)})
	}
	sortKVs(out)
	return out, nil
}

func (b *Memory) Close() error {
	return nil
}
