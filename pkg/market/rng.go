// pkg/market/rng.go
package market

import "hash/fnv"

// LCG 线性同余随机数发生器。
// 每个tick按 (ticker, 绝对tick时间) 重新派生种子，
// 因此同一时间区间的补算无论执行多少次都得到同一条价格路径。
type LCG struct {
	state uint64
}

// NewLCG 以固定种子创建发生器
func NewLCG(seed uint64) *LCG {
	// 避免零种子退化
	if seed == 0 {
		seed = 0x9E3779B97F4A7C15
	}
	g := &LCG{state: seed}
	// 预热一步，打散低质量种子
	g.next()
	return g
}

// NewTickRand 按 (ticker, tick时间戳) 派生tick专用发生器
func NewTickRand(ticker string, tickUnix int64) *LCG {
	h := fnv.New64a()
	h.Write([]byte(ticker))
	return NewLCG(h.Sum64() ^ uint64(tickUnix)*0x9E3779B97F4A7C15)
}

func (g *LCG) next() uint64 {
	// Numerical Recipes 常数
	g.state = g.state*6364136223846793005 + 1442695040888963407
	return g.state
}

// Float64 返回 [0,1) 区间的伪随机数
func (g *LCG) Float64() float64 {
	return float64(g.next()>>11) / (1 << 53)
}

// IntN 返回 [0,n) 区间的伪随机整数
func (g *LCG) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return int(g.next() % uint64(n))
}

// Range 返回 [min,max) 区间的伪随机数
func (g *LCG) Range(min, max float64) float64 {
	return min + g.Float64()*(max-min)
}
