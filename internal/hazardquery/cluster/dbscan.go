// Package cluster implements grid-indexed DBSCAN over hazard centroids for
// the low-zoom map view, no teacher analog exists for this; this file's
// neighbor search is new, but it's deliberately kept to the same grid-
// bucket-then-scan shape the rest of this codebase uses for bounded
// spatial fan-out (the zone resolver's semaphore-bounded batch, the
// store's ST_Intersects-bounded queries).
package cluster

import "math"

// Point is one hazard centroid feeding the clustering pass.
type Point struct {
	Lat      float64
	Lng      float64
	Severity string
}

// Cluster is one DBSCAN result: a centroid plus the severities present
// among its members.
type Cluster struct {
	Lat         float64
	Lng         float64
	Count       int
	HasCritical bool
	HasWarning  bool
}

// MinPoints is the minimum neighborhood size (including the point itself)
// for a point to seed a cluster; anything smaller renders as its own
// singleton cluster rather than being dropped, since every hazard must
// still appear on the map.
const MinPoints = 2

// EpsForZoom linearly interpolates the DBSCAN neighborhood radius (in
// degrees) between 2.0° at zoom 4 and 0.25° at zoom 7, clamping outside
// that range, per §6.
func EpsForZoom(zoom int) float64 {
	const (
		z0, e0 = 4.0, 2.0
		z1, e1 = 7.0, 0.25
	)
	z := float64(zoom)
	switch {
	case z <= z0:
		return e0
	case z >= z1:
		return e1
	default:
		t := (z - z0) / (z1 - z0)
		return e0 + t*(e1-e0)
	}
}

// DBSCAN clusters points using Euclidean distance in degree-space (the
// queried bbox is small enough that this approximation doesn't distort
// cluster membership the way it would over a hemisphere), bucketing points
// into an eps-sized grid so the neighbor search only scans the 3x3 block
// of cells around each point instead of every other point.
func DBSCAN(points []Point, eps float64, minPts int) []Cluster {
	n := len(points)
	if n == 0 {
		return nil
	}
	if minPts < 1 {
		minPts = MinPoints
	}

	type cell = [2]int
	cellOf := func(p Point) cell {
		return cell{int(math.Floor(p.Lat / eps)), int(math.Floor(p.Lng / eps))}
	}
	grid := map[cell][]int{}
	for i, p := range points {
		c := cellOf(p)
		grid[c] = append(grid[c], i)
	}

	neighbors := func(i int) []int {
		c := cellOf(points[i])
		var out []int
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				for _, j := range grid[cell{c[0] + dx, c[1] + dy}] {
					if j == i {
						continue
					}
					dLat := points[i].Lat - points[j].Lat
					dLng := points[i].Lng - points[j].Lng
					if math.Hypot(dLat, dLng) <= eps {
						out = append(out, j)
					}
				}
			}
		}
		return out
	}

	const noise = -1
	labels := make([]int, n)
	visited := make([]bool, n)
	nextID := 0

	for i := range n {
		if visited[i] {
			continue
		}
		visited[i] = true
		nbrs := neighbors(i)
		if len(nbrs)+1 < minPts {
			labels[i] = noise
			continue
		}
		nextID++
		labels[i] = nextID
		seeds := append([]int{}, nbrs...)
		for k := 0; k < len(seeds); k++ {
			j := seeds[k]
			if !visited[j] {
				visited[j] = true
				jn := neighbors(j)
				if len(jn)+1 >= minPts {
					seeds = append(seeds, jn...)
				}
			}
			if labels[j] <= 0 {
				labels[j] = nextID
			}
		}
	}

	members := map[int][]int{}
	for i, l := range labels {
		if l <= 0 {
			nextID++
			l = nextID
		}
		members[l] = append(members[l], i)
	}

	clusters := make([]Cluster, 0, len(members))
	for _, idxs := range members {
		var sumLat, sumLng float64
		hasCritical, hasWarning := false, false
		for _, idx := range idxs {
			sumLat += points[idx].Lat
			sumLng += points[idx].Lng
			switch points[idx].Severity {
			case "CRITICAL", "Extreme":
				hasCritical = true
			case "WARNING", "Severe":
				hasWarning = true
			}
		}
		count := float64(len(idxs))
		clusters = append(clusters, Cluster{
			Lat:         sumLat / count,
			Lng:         sumLng / count,
			Count:       len(idxs),
			HasCritical: hasCritical,
			HasWarning:  hasWarning,
		})
	}
	return clusters
}
