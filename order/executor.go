package order

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"market-maker-sim/inventory"
)

// ErrInvalidFill 负数量、非法价格或方向；说明上游策略有 bug，应终止运行。
var ErrInvalidFill = errors.New("invalid fill")

// Executor 模拟本方报价被立即、完全成交（不含部分成交、成交概率与延迟）。
// 独占 inventory.Account；非并发安全。
type Executor struct {
	acc     inventory.Account
	journal *Journal
	seq     uint64
}

// NewExecutor 创建执行引擎，账户初始为 {inventory: 0, cash: 0}。
func NewExecutor() *Executor {
	return &Executor{journal: NewJournal()}
}

// ValidateFill 在不修改状态的前提下校验一笔成交。
func ValidateFill(price, size float64, dir Direction) error {
	if !dir.Valid() {
		return fmt.Errorf("%w: direction %q", ErrInvalidFill, dir)
	}
	if math.IsNaN(size) || math.IsInf(size, 0) || size < 0 {
		return fmt.Errorf("%w: size %v", ErrInvalidFill, size)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return fmt.Errorf("%w: price %v", ErrInvalidFill, price)
	}
	return nil
}

// FillOrder 买：inventory += size, cash -= price*size；卖相反。
// 校验失败时状态不变。
func (e *Executor) FillOrder(price, size float64, dir Direction) (Fill, error) {
	if err := ValidateFill(price, size, dir); err != nil {
		return Fill{}, err
	}
	e.seq++
	f := Fill{
		ID:        "fill-" + strconv.FormatUint(e.seq, 10),
		Seq:       e.seq,
		Direction: dir,
		Price:     price,
		Size:      size,
	}
	e.acc.Apply(dir.Sign()*size, price)
	e.journal.Add(f)
	return f, nil
}

// Account 返回账户快照（值拷贝）。
func (e *Executor) Account() inventory.Account { return e.acc }

func (e *Executor) Inventory() float64 { return e.acc.Inventory }

func (e *Executor) Cash() float64 { return e.acc.Cash }

// Fills 返回全部成交记录。
func (e *Executor) Fills() []Fill { return e.journal.List() }

// Journal 暴露成交日志，供 posttrade 等只读使用。
func (e *Executor) Journal() *Journal { return e.journal }

// Replay 按会计恒等式重放成交：
// inventory = Σ sign*size，cash = -Σ sign*price*size。
func Replay(fills []Fill) (inventory, cash float64) {
	for _, f := range fills {
		s := f.Direction.Sign()
		inventory += s * f.Size
		cash -= s * f.Price * f.Size
	}
	return inventory, cash
}
