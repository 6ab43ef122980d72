package service

// IntN 返回 [0,n) 内的随机数，生产环境用 math/rand/v2 的全局函数，测试中注入固定种子
type IntN func(n int) int

// SplitGalleys 把题目总数拆分成每组 4 或 5 题的案例组。
// n < 4 时无法组成案例，返回空；剩余数量无法整除时最后一组可能小于 4。
func SplitGalleys(n int, intn IntN) []int {
	if n < 4 {
		return []int{}
	}
	sizes := make([]int, 0, n/4+1)
	remaining := n
	for remaining > 0 {
		var size int
		switch {
		case remaining%5 == 0:
			size = 5
		case remaining%4 == 0:
			size = 4
		case remaining > 5:
			size = 4 + intn(2)
		default:
			size = remaining
		}
		sizes = append(sizes, size)
		remaining -= size
	}
	return sizes
}

// DivideReading 阅读文章按 chunk 题一篇切分，剩余不足 chunk 的作为最后一篇
func DivideReading(n, chunk int) []int {
	if chunk <= 0 {
		chunk = 4
	}
	sizes := make([]int, 0, n/chunk+1)
	for n > chunk {
		sizes = append(sizes, chunk)
		n -= chunk
	}
	if n > 0 {
		sizes = append(sizes, n)
	}
	return sizes
}

// FillQuota 从 items 中取 n 个：数量足够时不放回抽样，不够时有放回抽样
func FillQuota[T any](items []T, n int, intn IntN) []T {
	if len(items) == 0 || n <= 0 {
		return []T{}
	}
	out := make([]T, n)
	if len(items) >= n {
		// 部分 Fisher-Yates，只打乱前 n 个
		pool := make([]T, len(items))
		copy(pool, items)
		for i := 0; i < n; i++ {
			j := i + intn(len(pool)-i)
			pool[i], pool[j] = pool[j], pool[i]
		}
		copy(out, pool[:n])
		return out
	}
	for i := range out {
		out[i] = items[intn(len(items))]
	}
	return out
}

// SplitVerbal 同时请求阅读和语言题时的分配：返回 (阅读题数, 语言题数)。
// n >= cap 时阅读固定 cap 题，其余给语言；否则语言取 n%4，剩下给阅读。
func SplitVerbal(n, passageCap int) (reading, verbal int) {
	if n >= passageCap {
		return passageCap, n - passageCap
	}
	verbal = n % 4
	return n - verbal, verbal
}

// expandByIDs 按原始顺序和重复次数还原查询结果，查不到的 ID 跳过
func expandByIDs[T any](ids []uint, found []T, idOf func(T) uint) []T {
	lookup := make(map[uint]T, len(found))
	for _, item := range found {
		lookup[idOf(item)] = item
	}
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if item, ok := lookup[id]; ok {
			out = append(out, item)
		}
	}
	return out
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
