package state

// The substrate algebra: one unary operator (Inv) and two commutative binary
// operators (Series, Parallel) over A4. The truth tables are static and
// input-independent; OperatorTable materializes them for the sealed
// operator_table.csv artifact.

// Inv is an involution: Z0 and S are fixed points, Eplus and Eminus swap.
func Inv(a State) State {
	switch a {
	case Eplus:
		return Eminus
	case Eminus:
		return Eplus
	default:
		return a
	}
}

// Series composes two states in series. Eminus absorbs, Z0 is the two-sided
// identity, S only survives meeting itself.
func Series(a, b State) State {
	if a == Eminus || b == Eminus {
		return Eminus
	}
	if a == S && b == S {
		return S
	}
	if (a == S && b == Eplus) || (a == Eplus && b == S) {
		return Eplus
	}
	if a == Z0 {
		return b
	}
	if b == Z0 {
		return a
	}
	return Eplus
}

// Parallel composes two states in parallel. Eminus absorbs, Z0 and S are
// only preserved when both operands agree; every other combination resolves
// to Eplus.
func Parallel(a, b State) State {
	if a == Eminus || b == Eminus {
		return Eminus
	}
	if a == S && b == S {
		return S
	}
	if a == Z0 && b == Z0 {
		return Z0
	}
	return Eplus
}

// OperatorRow is one line of the materialized operator table.
type OperatorRow struct {
	A        State
	B        State
	Inv      State // Inv(A)
	Series   State // Series(A, B)
	Parallel State // Parallel(A, B)
}

// OperatorTable returns the full 16-row truth table in canonical A4 order.
// The values are a fixed artifact of the algebra; any reimplementation must
// reproduce them exactly.
func OperatorTable() []OperatorRow {
	rows := make([]OperatorRow, 0, 16)
	for _, a := range A4 {
		for _, b := range A4 {
			rows = append(rows, OperatorRow{
				A:        a,
				B:        b,
				Inv:      Inv(a),
				Series:   Series(a, b),
				Parallel: Parallel(a, b),
			})
		}
	}
	return rows
}
