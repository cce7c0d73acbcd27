package types

const UnitBlock = "block"

// RetryBudget bounds a polling loop in chain progress rather than wall time.
// Elapsed only ever increases.
type RetryBudget struct {
	Unit    string
	Limit   int
	Elapsed int
}

func BlockBudget(limit int) *RetryBudget {
	if limit < 0 {
		limit = 0
	}
	return &RetryBudget{Unit: UnitBlock, Limit: limit}
}

// TempoBudget is the conventional bound for waiting on epoch-driven effects:
// multiplier tempos of the hotkey's subnet.
func TempoBudget(tempo uint16, multiplier int) *RetryBudget {
	return BlockBudget(int(tempo) * multiplier)
}

func (b *RetryBudget) Tick() {
	b.Elapsed++
}

func (b *RetryBudget) Remaining() int {
	if r := b.Limit - b.Elapsed; r > 0 {
		return r
	}
	return 0
}

func (b *RetryBudget) Exhausted() bool {
	return b.Elapsed >= b.Limit
}
