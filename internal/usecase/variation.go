package usecase

import (
	"sort"
	"strings"

	"shopcart/internal/domain/model"
)

type VariationOutput struct {
	ID       int64  `json:"id"`
	Category string `json:"category"`
	Value    string `json:"value"`
}

// 選択された key/value を商品のVariationに解決する。
// 一致しない組み合わせは黙って捨てる。
func resolveVariations(available []model.Variation, selected map[string]string) []model.Variation {
	keys := make([]string, 0, len(selected))
	for k := range selected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seen := make(map[int64]bool)
	out := make([]model.Variation, 0, len(keys))
	for _, k := range keys {
		category := strings.TrimSpace(k)
		value := strings.TrimSpace(selected[k])
		for _, v := range available {
			if !v.IsActive || seen[v.ID] {
				continue
			}
			if strings.EqualFold(v.Category, category) && strings.EqualFold(v.Value, value) {
				seen[v.ID] = true
				out = append(out, v)
				break
			}
		}
	}
	return out
}

// 順序に依存しない集合比較
func sameVariationSet(a, b []model.Variation) bool {
	ka, kb := variationIDs(a), variationIDs(b)
	if len(ka) != len(kb) {
		return false
	}
	for i := range ka {
		if ka[i] != kb[i] {
			return false
		}
	}
	return true
}

// 重複を除いた昇順のID列
func variationIDs(vars []model.Variation) []int64 {
	ids := make([]int64, 0, len(vars))
	seen := make(map[int64]bool, len(vars))
	for _, v := range vars {
		if seen[v.ID] {
			continue
		}
		seen[v.ID] = true
		ids = append(ids, v.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func toVariationOutputs(vars []model.Variation) []VariationOutput {
	out := make([]VariationOutput, 0, len(vars))
	for _, v := range vars {
		out = append(out, VariationOutput{ID: v.ID, Category: v.Category, Value: v.Value})
	}
	return out
}
