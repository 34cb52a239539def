package strategy

import "math"

// HalfSpread = baseSpread + kVol*vol，下限为 0，保证 bid <= ask。
// NaN 同样按 0 处理。
func HalfSpread(baseSpread, kVol, vol float64) float64 {
	half := baseSpread + kVol*vol
	if !(half >= 0) {
		return 0
	}
	return half
}

// InventorySkew = -kInventory*inventory：多头下移报价，空头上移。
func InventorySkew(kInventory, inventory float64) float64 {
	return -kInventory * inventory
}

// TaperSize 按 |inventory| 递减报价数量；taper 为 0 时返回 baseSize。
func TaperSize(baseSize, taper, inventory float64) float64 {
	if taper <= 0 {
		return baseSize
	}
	return baseSize / (1 + taper*math.Abs(inventory))
}
