package types

// RegionIndexAt returns the index of the region whose vertical range holds y,
// or -1 when no region does.
func RegionIndexAt(regions []Region, y int) int {
	for i, r := range regions {
		if r.Bounds.ContainsY(y) {
			return i
		}
	}
	return -1
}

// RegionIndexFor returns the index of the region containing the center of b,
// or -1 when b falls outside every region.
func RegionIndexFor(regions []Region, b Bounds) int {
	_, cy := b.Center()
	return RegionIndexAt(regions, cy)
}
