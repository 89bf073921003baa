// Package mmio provides 32-bit memory-mapped register cells.
//
// Register maps are declared as structs of U32 fields and placed at a
// peripheral's base address. Accesses go through sync/atomic so the
// compiler cannot elide or reorder them.
package mmio

import "sync/atomic"

// U32 is one 32-bit control/status/data register.
type U32 struct {
	v uint32
}

// Get reads the register.
func (r *U32) Get() uint32 { return atomic.LoadUint32(&r.v) }

// Set writes the register.
func (r *U32) Set(v uint32) { atomic.StoreUint32(&r.v, v) }
