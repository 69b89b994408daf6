package game

// Runner is the common surface of Engine and Board.
type Runner interface {
	Snapshot() Snapshot
	Close()
}

var (
	_ Runner = (*Engine)(nil)
	_ Runner = (*Board)(nil)
)
