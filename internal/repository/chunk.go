package repository

// Large ingestion batches are split before upserting so a single statement
// never carries an unbounded parameter list.
const defaultBatchSize = 500

func chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = defaultBatchSize
	}
	if len(items) == 0 {
		return nil
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for size < len(items) {
		out = append(out, items[:size])
		items = items[size:]
	}
	return append(out, items)
}
