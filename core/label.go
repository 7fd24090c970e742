package core

// Label 是推荐链路中的可解释标记：记录候选从哪个召回源来、被哪个模型打分、因何被过滤。
// Value 与 Source 的语义由各 Node 自定义。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / rank / filter / rerank
}

// MergeLabel 合并同名 Label：Value 以 '|' 累积，Source 以 ',' 累积；重复值不再追加。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" || incoming == existing {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "", incoming.Source == existing.Source:
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
