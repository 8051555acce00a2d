package multibody

import "github.com/san-kum/revolute/internal/scalar"

// MobilizerIndex locates a mobilizer in the arena of one specific tree.
// The zero value refers to no mobilizer.
type MobilizerIndex struct {
	arena uint64
	slot  int
}

func (i MobilizerIndex) IsValid() bool { return i.arena != 0 }

// MobilizerHandle is a MobilizerIndex whose concrete mobilizer type was
// checked once, when the handle was bound.
type MobilizerHandle[M any] struct {
	index MobilizerIndex
}

func (h MobilizerHandle[M]) Index() MobilizerIndex { return h.index }
func (h MobilizerHandle[M]) IsValid() bool         { return h.index.IsValid() }

// mobilizerArena owns every mobilizer of a tree. Slots are append-only.
type mobilizerArena[T scalar.Scalar[T]] struct {
	id    uint64
	slots []Mobilizer[T]
}

func newMobilizerArena[T scalar.Scalar[T]](id uint64) *mobilizerArena[T] {
	return &mobilizerArena[T]{id: id}
}

func (a *mobilizerArena[T]) insert(m Mobilizer[T]) MobilizerIndex {
	demand(m != nil, "nil mobilizer inserted into arena %d", a.id)
	a.slots = append(a.slots, m)
	return MobilizerIndex{arena: a.id, slot: len(a.slots) - 1}
}

func (a *mobilizerArena[T]) get(idx MobilizerIndex) Mobilizer[T] {
	demand(idx.arena == a.id, "mobilizer index from arena %d resolved in arena %d", idx.arena, a.id)
	demand(idx.slot >= 0 && idx.slot < len(a.slots), "stale mobilizer slot %d (arena holds %d)", idx.slot, len(a.slots))
	return a.slots[idx.slot]
}

func (a *mobilizerArena[T]) len() int { return len(a.slots) }

func bindHandle[M Mobilizer[T], T scalar.Scalar[T]](a *mobilizerArena[T], idx MobilizerIndex) MobilizerHandle[M] {
	m := a.get(idx)
	_, ok := m.(M)
	demand(ok, "mobilizer in slot %d is %T", idx.slot, m)
	return MobilizerHandle[M]{index: idx}
}

func resolve[M Mobilizer[T], T scalar.Scalar[T]](a *mobilizerArena[T], h MobilizerHandle[M]) M {
	demand(h.IsValid(), "unbound mobilizer handle")
	m, ok := a.get(h.index).(M)
	demand(ok, "mobilizer in slot %d changed type", h.index.slot)
	return m
}
