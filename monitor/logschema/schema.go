package logschema

import (
	"fmt"
	"sort"
	"strings"
)

// Schema 定义每个日志事件所需的关键字段，便于集中校验。
type Schema struct {
	Event    string
	Required []string
}

// 事件名
const (
	EventTickProcessed = "tick_processed"
	EventTickSkipped   = "tick_skipped"
	EventFill          = "fill"
	EventDrawdownBand  = "drawdown_band"
	EventConfigReload  = "config_reload"
	EventRunSummary    = "run_summary"
)

var schemas = map[string]Schema{
	EventTickProcessed: {
		Event:    EventTickProcessed,
		Required: []string{"seq", "mid", "volatility", "bid", "ask", "inventory", "cash"},
	},
	EventTickSkipped: {
		Event:    EventTickSkipped,
		Required: []string{"seq", "reason"},
	},
	EventFill: {
		Event:    EventFill,
		Required: []string{"fill_id", "side", "price", "size"},
	},
	EventDrawdownBand: {
		Event:    EventDrawdownBand,
		Required: []string{"band", "drawdown", "peak"},
	},
	EventConfigReload: {
		Event:    EventConfigReload,
		Required: []string{"path"},
	},
	EventRunSummary: {
		Event:    EventRunSummary,
		Required: []string{"run_id", "processed", "skipped", "inventory", "cash"},
	},
}

// Known 返回所有事件名，便于外部生成文档。
func Known() []string {
	names := make([]string, 0, len(schemas))
	for k := range schemas {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Validate 检查日志字段是否包含 schema 中要求的 key。
func Validate(event string, fields map[string]interface{}) error {
	s, ok := schemas[event]
	if !ok {
		return nil
	}
	var missing []string
	for _, key := range s.Required {
		if _, exists := fields[key]; !exists {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing fields: %s", strings.Join(missing, ","))
	}
	return nil
}
