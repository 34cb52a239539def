package risk

import "errors"

// ErrInsufficientData 样本不足或标准差为 0，调用方可在数据更多后重试。
var ErrInsufficientData = errors.New("insufficient data")
