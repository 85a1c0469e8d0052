package detector

import (
	"image"
	"sort"
)

// Region is a detected text area in image coordinates.
type Region struct {
	Box        image.Rectangle
	Confidence float64
}

// extractRegions binarizes the probability map and groups connected pixels
// into rectangular regions. Confidence is the mean probability over the
// region's pixels; regions below minConfidence are dropped.
func extractRegions(probMap []float32, w, h int, threshold, minConfidence float64) []Region {
	if len(probMap) < w*h || w <= 0 || h <= 0 {
		return nil
	}

	visited := make([]bool, w*h)
	var regions []Region

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if visited[idx] || float64(probMap[idx]) < threshold {
				continue
			}

			region, ok := growRegion(probMap, visited, w, h, x, y, threshold, minConfidence)
			if ok {
				regions = append(regions, region)
			}
		}
	}
	return regions
}

// growRegion flood-fills the connected component starting at (x0,y0) and
// returns its bounding box with mean confidence.
func growRegion(probMap []float32, visited []bool, w, h, x0, y0 int, threshold, minConfidence float64) (Region, bool) {
	minX, minY := x0, y0
	maxX, maxY := x0, y0
	var sum float64
	var count int

	stack := []int{y0*w + x0}
	visited[y0*w+x0] = true

	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		x, y := idx%w, idx/w
		sum += float64(probMap[idx])
		count++

		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}

		for _, n := range [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
			nx, ny := n[0], n[1]
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			nidx := ny*w + nx
			if visited[nidx] || float64(probMap[nidx]) < threshold {
				continue
			}
			visited[nidx] = true
			stack = append(stack, nidx)
		}
	}

	// Single-pixel speckles are noise.
	if count < 4 {
		return Region{}, false
	}

	confidence := sum / float64(count)
	if confidence < minConfidence {
		return Region{}, false
	}

	return Region{
		Box:        image.Rect(minX, minY, maxX+1, maxY+1),
		Confidence: confidence,
	}, true
}

// sortRegions orders regions top-to-bottom, then left-to-right. Regions whose
// vertical centers are within half a line height are treated as the same line.
func sortRegions(regions []Region) {
	sort.SliceStable(regions, func(i, j int) bool {
		ri, rj := regions[i].Box, regions[j].Box
		ci := ri.Min.Y + ri.Dy()/2
		cj := rj.Min.Y + rj.Dy()/2
		tolerance := maxInt(ri.Dy(), rj.Dy()) / 2
		if absInt(ci-cj) <= tolerance {
			return ri.Min.X < rj.Min.X
		}
		return ci < cj
	})
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
