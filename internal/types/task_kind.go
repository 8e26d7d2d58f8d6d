package types

// TaskKind identifies one of the recurring on-chain actions.
type TaskKind string

const (
	TaskClaim    TaskKind = "claim"
	TaskSwap     TaskKind = "swap"
	TaskTransfer TaskKind = "transfer"
	TaskMint     TaskKind = "mint"
	TaskRegister TaskKind = "register"
	TaskUpload   TaskKind = "upload"
)

// AllTaskKinds lists every known task kind in a stable order.
func AllTaskKinds() []TaskKind {
	return []TaskKind{TaskClaim, TaskSwap, TaskTransfer, TaskMint, TaskRegister, TaskUpload}
}

// Valid reports whether the kind is one of the known task kinds.
func (k TaskKind) Valid() bool {
	switch k {
	case TaskClaim, TaskSwap, TaskTransfer, TaskMint, TaskRegister, TaskUpload:
		return true
	}
	return false
}
