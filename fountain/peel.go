package fountain

// peel runs belief propagation over droplet index sets. With data == nil
// only the index structure is peeled; otherwise data[j] holds droplet j's
// payload, is consumed in place, and resolved blocks are returned.
//
// Algorithm:
//  1. Queue every droplet whose pending set has exactly one block.
//  2. Pop a droplet; its single pending block b is resolved by its data.
//  3. XOR b out of every other droplet still referencing it; droplets that
//     drop to one pending block join the queue.
//  4. Stop when the queue is empty.
//
// Complexity: O(Σ degree · BlockSize).
func peel(sets [][]int, data [][]byte, k int) (done []bool, blocks [][]byte) {
	withData := data != nil
	pending := make([]map[int]struct{}, len(sets))
	adj := make([][]int, k)
	var queue []int
	for j, s := range sets {
		pending[j] = make(map[int]struct{}, len(s))
		for _, b := range s {
			pending[j][b] = struct{}{}
			adj[b] = append(adj[b], j)
		}
		if len(pending[j]) == 1 {
			queue = append(queue, j)
		}
	}

	done = make([]bool, k)
	if withData {
		blocks = make([][]byte, k)
	}
	for len(queue) > 0 {
		j := queue[0]
		queue = queue[1:]
		if len(pending[j]) != 1 {
			continue
		}
		var b int
		for x := range pending[j] {
			b = x
		}
		done[b] = true
		if withData {
			blocks[b] = data[j]
		}
		for _, m := range adj[b] {
			if _, ok := pending[m][b]; !ok {
				continue
			}
			delete(pending[m], b)
			if withData && m != j {
				xorInto(data[m], blocks[b])
			}
			if len(pending[m]) == 1 {
				queue = append(queue, m)
			}
		}
	}
	return done, blocks
}

// coversAll reports whether the accepted slots peel every one of k blocks.
func coversAll(slots []slot, k int) bool {
	sets := make([][]int, len(slots))
	for i, s := range slots {
		sets[i] = s.blocks
	}
	done, _ := peel(sets, nil, k)
	for _, ok := range done {
		if !ok {
			return false
		}
	}
	return true
}
