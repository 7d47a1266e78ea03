// Package draw 加权随机抽取，供子弹、道具以及分级奖池共用
package draw

import "math/rand/v2"

// Source 随机数来源，*rand.Rand 满足该接口
type Source interface {
	IntN(n int) int
	Float64() float64
}

// NewSource 创建一个独立的随机数来源（每个房间一个，非并发安全）
func NewSource() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Seeded 创建固定种子的随机数来源，便于复现
func Seeded(seed1, seed2 uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed1, seed2))
}

// Option 带权重的候选项
type Option[T any] struct {
	Value  T
	Weight int
}

// Pool 分级奖池：先按 Weight 选池，再在池内按道具权重抽取
type Pool[T any] struct {
	Name    string
	Weight  int
	Options []Option[T]
}

// Total 返回正权重之和
func Total[T any](options []Option[T]) int {
	total := 0
	for _, o := range options {
		if o.Weight > 0 {
			total += o.Weight
		}
	}
	return total
}

// Draw 按权重抽取一项：在 [1, 总权重] 上均匀取值，返回第一个累计权重 ≥ 该值的选项。
// 非正权重的选项永远不会被选中；没有可选项时 ok 为 false。
func Draw[T any](rng Source, options []Option[T]) (value T, ok bool) {
	total := Total(options)
	if total == 0 {
		return value, false
	}

	point := rng.IntN(total) + 1
	cumulative := 0
	for _, o := range options {
		if o.Weight <= 0 {
			continue
		}
		cumulative += o.Weight
		if cumulative >= point {
			return o.Value, true
		}
	}
	return value, false
}

// DrawTiered 两级抽取：奖池 → 池内选项
func DrawTiered[T any](rng Source, pools []Pool[T]) (pool string, value T, ok bool) {
	tiers := make([]Option[int], 0, len(pools))
	for i, p := range pools {
		if Total(p.Options) == 0 {
			continue
		}
		tiers = append(tiers, Option[int]{Value: i, Weight: p.Weight})
	}

	idx, ok := Draw(rng, tiers)
	if !ok {
		return "", value, false
	}
	value, ok = Draw(rng, pools[idx].Options)
	return pools[idx].Name, value, ok
}

// Batch 连续抽取 n 次，保持生成顺序
func Batch[T any](rng Source, options []Option[T], n int) []T {
	out := make([]T, 0, n)
	for range n {
		if v, ok := Draw(rng, options); ok {
			out = append(out, v)
		}
	}
	return out
}

// Chance 以概率 p 返回 true
func Chance(rng Source, p float64) bool {
	return rng.Float64() < p
}

// Shuffle 原地打乱切片（Fisher-Yates）
func Shuffle[T any](rng Source, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

// Pick 等概率选取一项
func Pick[T any](rng Source, s []T) T {
	return s[rng.IntN(len(s))]
}
