// Package state implements quantum states in the stabilizer formalism
// and the state-type surface the rest of the system works through. The
// tableau representation and its update rules come from CHP
// (CNOT-Hadamard-Phase) by Scott Aaronson.
package state

import "errors"

// ErrAllocation is returned when a tableau cannot be allocated.
var ErrAllocation = errors.New("state initialize failed")

// maxQubits bounds tableau allocation. Beyond this the bit matrices
// would exceed addressable memory anyway.
const maxQubits = 1 << 24

// Tableau holds the stabilizer tableau of an n-qubit state. Rows
// 0..n-1 are destabilizer generators, rows n..2n-1 are stabilizer
// generators, row 2n is scratch space. The X and Z bit matrices are
// stored as single contiguous word slices with over32 words per row.
type Tableau struct {
	n      uint64
	over32 uint64

	// (2n+1) x over32 bit matrices, row-major
	x []uint32
	z []uint32

	// phase per row: 0 for +1, 1 for i, 2 for -1, 3 for -i
	r []uint8
}

// N returns the number of qubits. A tableau that was never
// initialized has zero qubits.
func (t *Tableau) N() uint64 { return t.n }

// Init sets the tableau to the n-qubit |0...0> state, replacing any
// previous contents.
func (t *Tableau) Init(n uint64) error {
	if n > maxQubits {
		return ErrAllocation
	}

	t.n = n
	t.over32 = (n >> 5) + 1
	rows := 2*n + 1
	t.x = make([]uint32, rows*t.over32)
	t.z = make([]uint32, rows*t.over32)
	t.r = make([]uint8, rows)

	for i := uint64(0); i < n; i++ {
		t.x[i*t.over32+(i>>5)] = 1 << (i & 0x1F)
		t.z[(i+n)*t.over32+(i>>5)] = 1 << (i & 0x1F)
	}
	return nil
}

// Reset returns the tableau to the empty, zero-qubit state.
func (t *Tableau) Reset() {
	*t = Tableau{}
}

// xw and zw address the word holding qubit q's bit in a row.

func (t *Tableau) xw(row, q uint64) *uint32 {
	return &t.x[row*t.over32+(q>>5)]
}

func (t *Tableau) zw(row, q uint64) *uint32 {
	return &t.z[row*t.over32+(q>>5)]
}

func bit(q uint64) uint32 {
	return 1 << (q & 0x1F)
}

// CNOT applies a controlled NOT from control to target.
func (t *Tableau) CNOT(control, target uint64) {
	cb, tb := bit(control), bit(target)
	for i := uint64(0); i < 2*t.n; i++ {
		xc := *t.xw(i, control)&cb != 0
		zt := *t.zw(i, target)&tb != 0
		if xc {
			*t.xw(i, target) ^= tb
		}
		if zt {
			*t.zw(i, control) ^= cb
		}
		xt := *t.xw(i, target)&tb != 0
		zc := *t.zw(i, control)&cb != 0
		if xc && zt && xt && zc {
			t.r[i] = (t.r[i] + 2) % 4
		}
		if xc && zt && !xt && !zc {
			t.r[i] = (t.r[i] + 2) % 4
		}
	}
}

// Hadamard applies the Hadamard gate to a qubit.
func (t *Tableau) Hadamard(qubit uint64) {
	qb := bit(qubit)
	for i := uint64(0); i < 2*t.n; i++ {
		xp, zp := t.xw(i, qubit), t.zw(i, qubit)
		tmp := *xp
		*xp ^= (*xp ^ *zp) & qb
		*zp ^= (*zp ^ tmp) & qb
		if *xp&qb != 0 && *zp&qb != 0 {
			t.r[i] = (t.r[i] + 2) % 4
		}
	}
}

// Phase applies the S gate to a qubit.
func (t *Tableau) Phase(qubit uint64) {
	qb := bit(qubit)
	for i := uint64(0); i < 2*t.n; i++ {
		if *t.xw(i, qubit)&qb != 0 && *t.zw(i, qubit)&qb != 0 {
			t.r[i] = (t.r[i] + 2) % 4
		}
		*t.zw(i, qubit) ^= *t.xw(i, qubit) & qb
	}
}

// PauliX applies the X gate, decomposed as HPPH.
func (t *Tableau) PauliX(qubit uint64) {
	t.Hadamard(qubit)
	t.Phase(qubit)
	t.Phase(qubit)
	t.Hadamard(qubit)
}

// PauliY applies the Y gate, decomposed as PHPPHPPP.
func (t *Tableau) PauliY(qubit uint64) {
	t.Phase(qubit)
	t.Hadamard(qubit)
	t.Phase(qubit)
	t.Phase(qubit)
	t.Hadamard(qubit)
	t.Phase(qubit)
	t.Phase(qubit)
	t.Phase(qubit)
}

// PauliZ applies the Z gate, decomposed as PP.
func (t *Tableau) PauliZ(qubit uint64) {
	t.Phase(qubit)
	t.Phase(qubit)
}

func (t *Tableau) rowcopy(to, from uint64) {
	copy(t.x[to*t.over32:(to+1)*t.over32], t.x[from*t.over32:(from+1)*t.over32])
	copy(t.z[to*t.over32:(to+1)*t.over32], t.z[from*t.over32:(from+1)*t.over32])
	t.r[to] = t.r[from]
}

// rowswap exchanges rows a and b through the scratch row.
func (t *Tableau) rowswap(a, b uint64) {
	t.rowcopy(2*t.n, b)
	t.rowcopy(b, a)
	t.rowcopy(a, 2*t.n)
}

// rowset sets a row to the observable X_o for o < n, or Z_{o-n}
// otherwise.
func (t *Tableau) rowset(row, observable uint64) {
	for j := uint64(0); j < t.over32; j++ {
		t.x[row*t.over32+j] = 0
		t.z[row*t.over32+j] = 0
	}
	t.r[row] = 0
	if observable < t.n {
		*t.xw(row, observable) = bit(observable)
	} else {
		*t.zw(row, observable-t.n) = bit(observable - t.n)
	}
}

// clifford returns the phase (0..3) produced when row a is
// left-multiplied by row b.
func (t *Tableau) clifford(a, b uint64) uint8 {
	var e int64

	for i := uint64(0); i < t.over32; i++ {
		xa, za := t.x[a*t.over32+i], t.z[a*t.over32+i]
		xb, zb := t.x[b*t.over32+i], t.z[b*t.over32+i]
		for j := uint64(0); j < 32; j++ {
			p := uint32(1) << j
			switch {
			case xb&p != 0 && zb&p == 0: // X
				if xa&p != 0 && za&p != 0 { // XY=iZ
					e++
				}
				if xa&p == 0 && za&p != 0 { // XZ=-iY
					e--
				}
			case xb&p != 0 && zb&p != 0: // Y
				if xa&p == 0 && za&p != 0 { // YZ=iX
					e++
				}
				if xa&p != 0 && za&p == 0 { // YX=-iZ
					e--
				}
			case zb&p != 0: // Z
				if xa&p != 0 && za&p == 0 { // ZX=iY
					e++
				}
				if xa&p != 0 && za&p != 0 { // ZY=-iX
					e--
				}
			}
		}
	}

	e = (e + int64(t.r[a]) + int64(t.r[b])) % 4
	if e < 0 {
		e += 4
	}
	return uint8(e)
}

// rowmult left-multiplies row a by row b.
func (t *Tableau) rowmult(a, b uint64) {
	t.r[a] = t.clifford(a, b)
	for i := uint64(0); i < t.over32; i++ {
		t.x[a*t.over32+i] ^= t.x[b*t.over32+i]
		t.z[a*t.over32+i] ^= t.z[b*t.over32+i]
	}
}

// gaussian puts the stabilizer generators in quasi-upper-triangular
// form: generators containing X or Y on top, Z-only generators below.
// The return value is the log2 of the number of nonzero basis states.
func (t *Tableau) gaussian() uint64 {
	i := t.n

	for j := uint64(0); j < t.n; j++ {
		k := i
		for k < 2*t.n {
			if *t.xw(k, j)&bit(j) != 0 {
				break
			}
			k++
		}
		if k < 2*t.n {
			t.rowswap(i, k)
			t.rowswap(i-t.n, k-t.n)
			for k2 := i + 1; k2 < 2*t.n; k2++ {
				if *t.xw(k2, j)&bit(j) != 0 {
					t.rowmult(k2, i)
					t.rowmult(i-t.n, k2-t.n)
				}
			}
			i++
		}
	}
	g := i - t.n

	for j := uint64(0); j < t.n; j++ {
		k := i
		for k < 2*t.n {
			if *t.zw(k, j)&bit(j) != 0 {
				break
			}
			k++
		}
		if k < 2*t.n {
			t.rowswap(i, k)
			t.rowswap(i-t.n, k-t.n)
			for k2 := i + 1; k2 < 2*t.n; k2++ {
				if *t.zw(k2, j)&bit(j) != 0 {
					t.rowmult(k2, i)
					t.rowmult(i-t.n, k2-t.n)
				}
			}
			i++
		}
	}

	return g
}

// seedScratch writes into the scratch row a Pauli operator P such
// that P|0...0> occurs with nonzero amplitude. Gaussian elimination
// must have run first; g is its return value.
func (t *Tableau) seedScratch(g uint64) {
	var min uint64
	t.r[2*t.n] = 0
	for j := uint64(0); j < t.over32; j++ {
		t.x[2*t.n*t.over32+j] = 0
		t.z[2*t.n*t.over32+j] = 0
	}
	for i := int64(2*t.n - 1); i >= int64(t.n+g); i-- {
		f := int64(t.r[i])
		for j := int64(t.n - 1); j >= 0; j-- {
			if *t.zw(uint64(i), uint64(j))&bit(uint64(j)) != 0 {
				min = uint64(j)
				if *t.xw(2*t.n, uint64(j))&bit(uint64(j)) != 0 {
					f = (f + 2) % 4
				}
			}
		}
		if f == 2 {
			*t.xw(2*t.n, min) ^= bit(min)
		}
	}
}

// BasisStateCount returns the number of nonzero computational basis
// states in the superposition. It runs Gaussian elimination, so the
// generator set is reordered.
func (t *Tableau) BasisStateCount() uint64 {
	if t.n == 0 {
		return 1
	}
	g := t.gaussian()
	t.seedScratch(g)
	return 1 << g
}

// Measure measures a qubit in the computational basis and returns 0
// or 1. When the outcome is random, coin supplies the fair coin flip.
func (t *Tableau) Measure(qubit uint64, coin RandomSource) (uint8, error) {
	qb := bit(qubit)

	// a stabilizer generator anticommuting with Z_qubit makes the
	// outcome random
	p := uint64(0)
	random := false
	for p < t.n {
		if *t.xw(p+t.n, qubit)&qb != 0 {
			random = true
			break
		}
		p++
	}

	if random {
		t.rowcopy(p, p+t.n)
		t.rowset(p+t.n, qubit+t.n)
		flip, err := coin.UniformInt(0, 1)
		if err != nil {
			return 0, err
		}
		t.r[p+t.n] = uint8(2 * flip)
		for i := uint64(0); i < 2*t.n; i++ {
			if i != p && *t.xw(i, qubit)&qb != 0 {
				t.rowmult(i, p)
			}
		}
		if t.r[p+t.n] != 0 {
			return 1, nil
		}
		return 0, nil
	}

	// deterministic outcome: accumulate over destabilizer generators
	m := uint64(0)
	for m < t.n {
		if *t.xw(m, qubit)&qb != 0 {
			break
		}
		m++
	}
	t.rowcopy(2*t.n, m+t.n)
	for i := m + 1; i < t.n; i++ {
		if *t.xw(i, qubit)&qb != 0 {
			t.rowmult(2*t.n, i+t.n)
		}
	}
	if t.r[2*t.n] != 0 {
		return 1, nil
	}
	return 0, nil
}
