package correlate

import "sort"

// dbscan1D clusters 1-D points (seconds since earliest) using a
// straightforward density-based scan: two points are directly reachable
// when within eps of each other, and minPts governs whether a point is a
// core point. Labels follow the sklearn convention: -1 is noise, >=0 is
// a cluster id.
func dbscan1D(points []float64, eps float64, minPts int) []int {
	n := len(points)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -2 // unvisited
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return points[order[a]] < points[order[b]] })

	neighbors := func(i int) []int {
		var out []int
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			d := points[i] - points[j]
			if d < 0 {
				d = -d
			}
			if d <= eps {
				out = append(out, j)
			}
		}
		return out
	}

	clusterID := 0
	for _, i := range order {
		if labels[i] != -2 {
			continue
		}
		neigh := neighbors(i)
		if len(neigh)+1 < minPts {
			labels[i] = -1
			continue
		}
		labels[i] = clusterID
		seeds := append([]int{}, neigh...)
		for k := 0; k < len(seeds); k++ {
			j := seeds[k]
			if labels[j] == -1 {
				labels[j] = clusterID
			}
			if labels[j] != -2 {
				continue
			}
			labels[j] = clusterID
			jn := neighbors(j)
			if len(jn)+1 >= minPts {
				seeds = append(seeds, jn...)
			}
		}
		clusterID++
	}
	return labels
}
