package cache

import "time"

// Layered checks memory before disk and promotes disk hits back into
// memory with the remaining layer TTL.
type Layered struct {
	memory *Memory
	disk   *Disk
	ttl    time.Duration
}

func NewLayered(memory *Memory, disk *Disk, ttl time.Duration) *Layered {
	return &Layered{memory: memory, disk: disk, ttl: ttl}
}

func (l *Layered) Get(key string) ([]byte, bool) {
	if data, ok := l.memory.Get(key); ok {
		return data, true
	}
	if l.disk == nil {
		return nil, false
	}
	data, ok := l.disk.Get(key)
	if !ok {
		return nil, false
	}
	l.memory.Set(key, data, l.ttl)
	return data, true
}

func (l *Layered) Set(key string, value []byte, ttl time.Duration) error {
	if err := l.memory.Set(key, value, ttl); err != nil {
		return err
	}
	if l.disk == nil {
		return nil
	}
	return l.disk.Set(key, value, ttl)
}

func (l *Layered) Delete(key string) error {
	if err := l.memory.Delete(key); err != nil {
		return err
	}
	if l.disk == nil {
		return nil
	}
	return l.disk.Delete(key)
}

func (l *Layered) Clear() error {
	if err := l.memory.Clear(); err != nil {
		return err
	}
	if l.disk == nil {
		return nil
	}
	return l.disk.Clear()
}
