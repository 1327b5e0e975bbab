// Package assembler merges the outputs of the analysis stages into one
// AnalysisResult.
package assembler

import (
	"github.com/menta2k/ux-analyzer/pkg/types"
)

// Build assembles a result. Nil slices become empty lists so the serialized
// document always carries every key. Inputs are copied, not aliased.
func Build(meta types.Metadata, colors []types.ColorSwatch, regions []types.Region, texts []types.TextElement) *types.AnalysisResult {
	result := &types.AnalysisResult{
		Metadata:     meta,
		Colors:       make([]types.ColorSwatch, len(colors)),
		Regions:      make([]types.Region, len(regions)),
		TextElements: make([]types.TextElement, len(texts)),
	}
	copy(result.Colors, colors)
	copy(result.TextElements, texts)

	for i, r := range regions {
		r.Elements = append(make([]types.Element, 0, len(r.Elements)), r.Elements...)
		result.Regions[i] = r
	}
	return result
}

// RegionText is the derived grouping of text spans under one region
type RegionText struct {
	Region types.RegionType    `json:"region"`
	Index  int                 `json:"index"`
	Texts  []types.TextElement `json:"texts"`
}

// TextByRegion groups text spans by the region containing their center.
// The canonical TextElements list is not modified. Spans outside every
// region are returned separately.
func TextByRegion(result *types.AnalysisResult) ([]RegionText, []types.TextElement) {
	groups := make([]RegionText, len(result.Regions))
	for i, r := range result.Regions {
		groups[i] = RegionText{Region: r.Type, Index: i, Texts: make([]types.TextElement, 0)}
	}

	var orphans []types.TextElement
	for _, t := range result.TextElements {
		idx := types.RegionIndexFor(result.Regions, t.Bounds)
		if idx < 0 {
			orphans = append(orphans, t)
			continue
		}
		groups[idx].Texts = append(groups[idx].Texts, t)
	}
	return groups, orphans
}

// Summary holds headline counts for logging and the CLI
type Summary struct {
	Colors   int
	Regions  int
	Elements int
	Texts    int
}

// Summarize counts the contents of result
func Summarize(result *types.AnalysisResult) Summary {
	s := Summary{
		Colors:  len(result.Colors),
		Regions: len(result.Regions),
		Texts:   len(result.TextElements),
	}
	for _, r := range result.Regions {
		s.Elements += len(r.Elements)
	}
	return s
}
