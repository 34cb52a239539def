package order

// Journal 按时间顺序记录成交，支持查询。
type Journal struct {
	fills []Fill
	byID  map[string]int
}

func NewJournal() *Journal {
	return &Journal{byID: make(map[string]int)}
}

func (j *Journal) Add(f Fill) {
	j.byID[f.ID] = len(j.fills)
	j.fills = append(j.fills, f)
}

func (j *Journal) Get(id string) (Fill, bool) {
	idx, ok := j.byID[id]
	if !ok {
		return Fill{}, false
	}
	return j.fills[idx], true
}

func (j *Journal) Len() int { return len(j.fills) }

// List 返回全部成交（拷贝）。
func (j *Journal) List() []Fill {
	res := make([]Fill, len(j.fills))
	copy(res, j.fills)
	return res
}

// Since 返回 seq 之后（不含）的成交。
func (j *Journal) Since(seq uint64) []Fill {
	for i, f := range j.fills {
		if f.Seq > seq {
			res := make([]Fill, len(j.fills)-i)
			copy(res, j.fills[i:])
			return res
		}
	}
	return nil
}
