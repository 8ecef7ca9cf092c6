package domain

// ChunkAccounts splits accounts into exactly n contiguous chunks whose sizes
// differ by at most one. The first len(accounts)%n chunks carry the extra
// account. When there are fewer accounts than chunks, the trailing chunks
// are empty.
func ChunkAccounts(accounts []Account, n int) [][]Account {
	if n < 1 {
		n = 1
	}

	base := len(accounts) / n
	extra := len(accounts) % n

	chunks := make([][]Account, 0, n)
	start := 0
	for i := 0; i < n; i++ {
		size := base
		if i < extra {
			size++
		}

		chunk := make([]Account, size)
		copy(chunk, accounts[start:start+size])
		chunks = append(chunks, chunk)
		start += size
	}

	return chunks
}
