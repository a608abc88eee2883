package vm

import "sync"

// Object is a heap-allocated array cell (spec §4.6.3 "heap objects:
// arrays, closures' captured environments"). Generation/age/mark bits
// mirror the teacher's mark-and-sweep object header idiom, generalized
// to also carry a generation flag so the collector can decide between
// a cheap copying minor GC and a full mark-sweep major GC.
type Object struct {
	Elems []Value

	generation int // 0 = young, 1 = old
	age        int // minor-GC survivals since last promotion
	marked     bool
	forwarded  *Object // not set or read by the collector
}

// GC is a generational collector over the VM's live value stack and
// global table as its root set (spec §4.6.3: "young/old spaces,
// young_threshold/old_threshold/promotion_age, minor GC = stop-the-
// world copy-collect with promotion, major GC = minor + mark-sweep
// old, idempotent write_barrier, explicit root set"). Grounded on the
// teacher's vm.go CallFrame/ModuleScope root-walking idiom, generalized
// from the teacher's single mark-sweep heap to two spaces since no
// pack example implements generational collection.
type GC struct {
	mu sync.Mutex

	vm *VM

	young []*Object
	old   []*Object

	youngThreshold int
	oldThreshold   int
	promotionAge   int

	remembered map[*Object]bool // old objects written-through since last minor GC
}

func NewGC(vm *VM) *GC {
	return &GC{
		vm:             vm,
		youngThreshold: 256,
		oldThreshold:   4096,
		promotionAge:   3,
		remembered:     make(map[*Object]bool),
	}
}

// Alloc allocates a new young-generation array object, running a minor
// GC first if the young space is over threshold.
func (gc *GC) Alloc(elems []Value) *Object {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if len(gc.young) >= gc.youngThreshold {
		gc.minorLocked()
	}
	obj := &Object{Elems: elems, generation: 0}
	gc.young = append(gc.young, obj)
	return obj
}

// WriteBarrier records a store into obj as making it a minor-GC root
// when obj lives in the old generation, so references it gains from
// young objects aren't missed on the next minor collection. Idempotent:
// re-recording an already-remembered object is a no-op.
func (gc *GC) WriteBarrier(obj *Object) {
	if obj == nil || obj.generation == 0 {
		return
	}
	gc.mu.Lock()
	gc.remembered[obj] = true
	gc.mu.Unlock()
}

// MinorGC runs a stop-the-world copy-collect over the young
// generation: live young objects found from the root set (plus the
// remembered set from old->young writes) survive and age by one;
// objects reaching promotionAge move to the old generation.
func (gc *GC) MinorGC() {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.minorLocked()
}

func (gc *GC) minorLocked() {
	live := gc.rootsLocked()
	reachable := make(map[*Object]bool)
	var walk func(*Object)
	walk = func(o *Object) {
		if o == nil || o.generation != 0 || reachable[o] {
			return
		}
		reachable[o] = true
		for _, e := range o.Elems {
			if e.Kind == KindRef {
				walk(e.Ref)
			}
		}
	}
	for _, o := range live {
		walk(o)
	}
	for o := range gc.remembered {
		for _, e := range o.Elems {
			if e.Kind == KindRef {
				walk(e.Ref)
			}
		}
	}

	survivors := gc.young[:0]
	for o := range reachable {
		o.age++
		if o.age >= gc.promotionAge {
			o.generation = 1
			gc.old = append(gc.old, o)
		} else {
			survivors = append(survivors, o)
		}
	}
	gc.young = survivors
	gc.remembered = make(map[*Object]bool)

	if len(gc.old) >= gc.oldThreshold {
		gc.majorLocked()
	}
}

// MajorGC runs a minor collection followed by a full mark-sweep over
// the old generation.
func (gc *GC) MajorGC() {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.minorLocked()
	gc.majorLocked()
}

func (gc *GC) majorLocked() {
	for _, o := range gc.old {
		o.marked = false
	}
	roots := gc.rootsLocked()
	var mark func(*Object)
	mark = func(o *Object) {
		if o == nil || o.marked {
			return
		}
		o.marked = true
		for _, e := range o.Elems {
			if e.Kind == KindRef {
				mark(e.Ref)
			}
		}
	}
	for _, o := range roots {
		mark(o)
	}
	kept := gc.old[:0]
	for _, o := range gc.old {
		if o.marked {
			kept = append(kept, o)
		}
	}
	gc.old = kept
}

// rootsLocked walks the VM's live value stack and call-frame locals as
// the explicit root set (spec §4.6.3 "explicit root set ... VM's value
// stack auto-registered").
func (gc *GC) rootsLocked() []*Object {
	var roots []*Object
	collect := func(v Value) {
		if v.Kind == KindRef && v.Ref != nil {
			roots = append(roots, v.Ref)
		}
	}
	for i := 0; i < gc.vm.sp; i++ {
		collect(gc.vm.stack[i])
	}
	for i := 0; i < gc.vm.frameCount; i++ {
		for _, v := range gc.vm.frames[i].locals {
			collect(v)
		}
	}
	for _, v := range gc.vm.Globals {
		collect(v)
	}
	return roots
}
