// Package service implements the Component E clusterer: K-means over
// candidate embeddings with auto-K selection by silhouette score and
// dominant-feature cluster naming.
package service

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/andreypavlenko/talentgraph/internal/kgerrors"
	"github.com/andreypavlenko/talentgraph/internal/rng"
	candidateModel "github.com/andreypavlenko/talentgraph/modules/candidates/model"
	interviewerModel "github.com/andreypavlenko/talentgraph/modules/interviewers/model"
)

// CandidateVector pairs a candidate with its embedding; callers compute the
// embedding via the Component A adapter before calling Cluster.
type CandidateVector struct {
	Candidate *candidateModel.Candidate
	Vector    []float32
}

// ClusterStats summarizes one named cluster.
type ClusterStats struct {
	Name               string
	Size               int
	DominantSkills     []string
	DominantDomains    []string
	AvgExperienceYears float64
}

// Result is the outcome of a Cluster call.
type Result struct {
	Assignments map[string]string // candidate id -> cluster name
	Statistics  map[string]ClusterStats
	OptimalK    int
	Silhouette  float64
}

// Clusterer holds the trained model between Cluster and AssignOne calls, as
// required by the "assign_one before cluster_candidates is an error" rule.
type Clusterer struct {
	kMin, kMax, nInit int
	source            *rng.Source

	trained    bool
	centroids  [][]float64
	names      map[int]string
}

func New(kMin, kMax, nInit int, seed int64) *Clusterer {
	return &Clusterer{
		kMin:   kMin,
		kMax:   kMax,
		nInit:  nInit,
		source: rng.New(seed),
	}
}

// Cluster runs the full pipeline: K selection, final fit, naming, and
// ability_cluster assignment (the caller is responsible for persisting the
// returned assignments back onto each candidate).
func (c *Clusterer) Cluster(candidates []CandidateVector) (*Result, error) {
	n := len(candidates)
	if n < c.kMin {
		return nil, kgerrors.New(kgerrors.ValidationError, fmt.Sprintf("not enough candidates (%d) for clustering, need at least %d", n, c.kMin))
	}

	vectors := make([][]float64, n)
	for i, cv := range candidates {
		vectors[i] = toFloat64(cv.Vector)
	}

	kMax := c.kMax
	if kMax > n-1 {
		kMax = n - 1
	}
	if kMax < c.kMin {
		kMax = c.kMin
	}

	bestK := c.kMin
	bestSilhouette := -1.0
	var bestLabels []int
	var bestCentroids [][]float64

	for k := c.kMin; k <= kMax; k++ {
		labels, centroids := c.fitKMeans(vectors, k)
		if countDistinct(labels) < 2 {
			continue
		}
		sil := silhouetteScore(vectors, labels)
		if sil > bestSilhouette {
			bestSilhouette = sil
			bestK = k
			bestLabels = labels
			bestCentroids = centroids
		}
	}

	if bestLabels == nil {
		// every K collapsed to one cluster; fall back to kMin labels anyway.
		bestLabels, bestCentroids = c.fitKMeans(vectors, c.kMin)
		bestK = c.kMin
		bestSilhouette = 0.0
	}

	names := nameAllClusters(candidates, bestLabels, bestK)

	assignments := make(map[string]string, n)
	statistics := make(map[string]ClusterStats, bestK)
	clusterMembers := make(map[int][]*candidateModel.Candidate)
	for i, cv := range candidates {
		label := bestLabels[i]
		name := names[label]
		assignments[cv.Candidate.ID] = name
		clusterMembers[label] = append(clusterMembers[label], cv.Candidate)
	}
	for label := 0; label < bestK; label++ {
		members := clusterMembers[label]
		statistics[names[label]] = ClusterStats{
			Name:               names[label],
			Size:               len(members),
			DominantSkills:     topN(countFrequency(members, func(c *candidateModel.Candidate) []string { return c.Skills }), 5),
			DominantDomains:    topN(countFrequency(members, func(c *candidateModel.Candidate) []string { return c.Domains }), 3),
			AvgExperienceYears: avgExperience(members),
		}
	}

	c.trained = true
	c.centroids = bestCentroids
	c.names = names

	return &Result{
		Assignments: assignments,
		Statistics:  statistics,
		OptimalK:    bestK,
		Silhouette:  bestSilhouette,
	}, nil
}

// AssignOne returns the cluster label of the nearest centroid. Requires a
// prior successful Cluster call.
func (c *Clusterer) AssignOne(vector []float32) (string, error) {
	if !c.trained {
		return "", kgerrors.New(kgerrors.InvariantViolation, "assign_one called before a successful cluster run")
	}
	v := toFloat64(vector)
	best := -1
	bestDist := math.Inf(1)
	for label, centroid := range c.centroids {
		d := euclideanDistance(v, centroid)
		if d < bestDist {
			bestDist = d
			best = label
		}
	}
	return c.names[best], nil
}

// UpdateInterviewerClusterRates walks each interviewer's interview history,
// grouping outcomes by the candidate's current ability cluster, and returns
// the updated per-cluster rate maps keyed by interviewer id. Clusters with
// no observed outcomes get no entry, so Interviewer.ClusterSuccessRate
// reports its 0.5 default for them.
func UpdateInterviewerClusterRates(
	interviewers []*interviewerModel.Interviewer,
	candidateCluster func(candidateID string) (string, bool),
) map[string]map[string]float64 {
	result := make(map[string]map[string]float64, len(interviewers))
	for _, interviewer := range interviewers {
		if len(interviewer.InterviewHistory) == 0 {
			continue
		}
		counts := make(map[string][2]int) // cluster -> [successes, total]
		for _, record := range interviewer.InterviewHistory {
			cluster, ok := candidateCluster(record.CandidateID)
			if !ok || cluster == "" {
				continue
			}
			c := counts[cluster]
			c[1]++
			if record.Result == "hired" || record.Result == "pass" {
				c[0]++
			}
			counts[cluster] = c
		}
		if len(counts) == 0 {
			continue
		}
		rates := make(map[string]float64, len(counts))
		for cluster, c := range counts {
			if c[1] == 0 {
				rates[cluster] = 0.5
				continue
			}
			rates[cluster] = float64(c[0]) / float64(c[1])
		}
		result[interviewer.ID] = rates
	}
	return result
}

// --- K-means core ------------------------------------------------------

func (c *Clusterer) fitKMeans(vectors [][]float64, k int) (labels []int, centroids [][]float64) {
	n := len(vectors)
	bestInertia := math.Inf(1)

	for restart := 0; restart < c.nInit; restart++ {
		cent := c.initCentroids(vectors, k)
		lbl := make([]int, n)

		for iter := 0; iter < 300; iter++ {
			changed := false
			for i, v := range vectors {
				nearest := nearestCentroid(v, cent)
				if lbl[i] != nearest {
					lbl[i] = nearest
					changed = true
				}
			}
			newCent := recomputeCentroids(vectors, lbl, k, cent)
			cent = newCent
			if !changed && iter > 0 {
				break
			}
		}

		inertia := totalInertia(vectors, lbl, cent)
		if inertia < bestInertia {
			bestInertia = inertia
			labels = append([]int(nil), lbl...)
			centroids = cent
		}
	}
	return labels, centroids
}

// initCentroids uses K-means++-style seeding driven by the shared
// deterministic RNG source so restarts are reproducible given a seed.
func (c *Clusterer) initCentroids(vectors [][]float64, k int) [][]float64 {
	n := len(vectors)
	centroids := make([][]float64, 0, k)
	firstIdx := int(c.source.Uint64() % uint64(n))
	centroids = append(centroids, append([]float64(nil), vectors[firstIdx]...))

	for len(centroids) < k {
		distSq := make([]float64, n)
		var sum float64
		for i, v := range vectors {
			d := nearestCentroidDistance(v, centroids)
			distSq[i] = d * d
			sum += distSq[i]
		}
		if sum == 0 {
			idx := int(c.source.Uint64() % uint64(n))
			centroids = append(centroids, append([]float64(nil), vectors[idx]...))
			continue
		}
		target := c.source.Float64() * sum
		var acc float64
		chosen := n - 1
		for i, d := range distSq {
			acc += d
			if acc >= target {
				chosen = i
				break
			}
		}
		centroids = append(centroids, append([]float64(nil), vectors[chosen]...))
	}
	return centroids
}

func nearestCentroid(v []float64, centroids [][]float64) int {
	best := 0
	bestDist := euclideanDistance(v, centroids[0])
	for i := 1; i < len(centroids); i++ {
		d := euclideanDistance(v, centroids[i])
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func nearestCentroidDistance(v []float64, centroids [][]float64) float64 {
	best := math.Inf(1)
	for _, cen := range centroids {
		d := euclideanDistance(v, cen)
		if d < best {
			best = d
		}
	}
	return best
}

func recomputeCentroids(vectors [][]float64, labels []int, k int, prev [][]float64) [][]float64 {
	dim := len(vectors[0])
	sums := make([][]float64, k)
	counts := make([]int, k)
	for i := range sums {
		sums[i] = make([]float64, dim)
	}
	for i, v := range vectors {
		label := labels[i]
		counts[label]++
		for d := 0; d < dim; d++ {
			sums[label][d] += v[d]
		}
	}
	out := make([][]float64, k)
	for label := 0; label < k; label++ {
		if counts[label] == 0 {
			out[label] = prev[label]
			continue
		}
		out[label] = make([]float64, dim)
		for d := 0; d < dim; d++ {
			out[label][d] = sums[label][d] / float64(counts[label])
		}
	}
	return out
}

func totalInertia(vectors [][]float64, labels []int, centroids [][]float64) float64 {
	var total float64
	for i, v := range vectors {
		d := euclideanDistance(v, centroids[labels[i]])
		total += d * d
	}
	return total
}

func euclideanDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func countDistinct(labels []int) int {
	seen := make(map[int]struct{})
	for _, l := range labels {
		seen[l] = struct{}{}
	}
	return len(seen)
}

// silhouetteScore computes the mean silhouette coefficient over all points.
func silhouetteScore(vectors [][]float64, labels []int) float64 {
	n := len(vectors)
	byCluster := make(map[int][]int)
	for i, l := range labels {
		byCluster[l] = append(byCluster[l], i)
	}

	var total float64
	for i := range vectors {
		own := labels[i]
		a := meanDistance(vectors, i, byCluster[own], true)

		b := math.Inf(1)
		for label, members := range byCluster {
			if label == own {
				continue
			}
			d := meanDistance(vectors, i, members, false)
			if d < b {
				b = d
			}
		}

		if math.Max(a, b) == 0 {
			continue
		}
		total += (b - a) / math.Max(a, b)
	}
	return total / float64(n)
}

func meanDistance(vectors [][]float64, i int, members []int, excludeSelf bool) float64 {
	var sum float64
	count := 0
	for _, j := range members {
		if excludeSelf && j == i {
			continue
		}
		sum += euclideanDistance(vectors[i], vectors[j])
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// --- Naming --------------------------------------------------------------

func nameAllClusters(candidates []CandidateVector, labels []int, k int) map[int]string {
	names := make(map[int]string, k)
	used := make(map[string]int, k)
	for label := 0; label < k; label++ {
		var members []*candidateModel.Candidate
		for i, cv := range candidates {
			if labels[i] == label {
				members = append(members, cv.Candidate)
			}
		}
		name := nameCluster(members)
		used[name]++
		if used[name] > 1 {
			// keep names unique so assignments and statistics stay distinct
			name = fmt.Sprintf("%s (%d)", name, used[name])
		}
		names[label] = name
	}
	return names
}

func nameCluster(members []*candidateModel.Candidate) string {
	if len(members) == 0 {
		return "Unassigned"
	}

	skillCounts := countFrequency(members, func(c *candidateModel.Candidate) []string { return c.Skills })
	domainCounts := countFrequency(members, func(c *candidateModel.Candidate) []string { return c.Domains })

	threshold := float64(len(members)) * 0.4
	if threshold < 1 {
		threshold = 1
	}

	topDomain, topDomainCount := mostCommon(domainCounts)
	if topDomainCount >= int(threshold) && topDomain != "" {
		switch {
		case strings.Contains(topDomain, "LLM"), strings.Contains(topDomain, "Inference"):
			return "LLM Inference Engineers"
		case strings.Contains(topDomain, "GPU"), strings.Contains(topDomain, "CUDA"):
			return "GPU Computing Experts"
		case strings.Contains(topDomain, "ML"), strings.Contains(topDomain, "Machine Learning"):
			return "ML Engineers"
		default:
			return topDomain + " Specialists"
		}
	}

	var dominantSkills []string
	for skill, count := range skillCounts {
		if float64(count) >= threshold {
			dominantSkills = append(dominantSkills, skill)
		}
	}
	if len(dominantSkills) > 0 {
		switch {
		case anyContains(dominantSkills, "CUDA"):
			return "CUDA/GPU Experts"
		case anyContains(dominantSkills, "React") || anyContains(dominantSkills, "Node"):
			return "Fullstack Developers"
		case anyContains(dominantSkills, "PyTorch") || anyContains(dominantSkills, "TensorFlow"):
			return "Deep Learning Engineers"
		case anyContains(dominantSkills, "Kubernetes") || anyContains(dominantSkills, "Docker"):
			return "DevOps Engineers"
		default:
			top := topN(skillCounts, 2)
			return joinSlash(top) + " Specialists"
		}
	}

	avgExp := avgExperience(members)
	switch {
	case avgExp >= 7:
		return "Senior Engineers"
	case avgExp >= 4:
		return "Mid-Level Engineers"
	default:
		return "Junior Engineers"
	}
}

func countFrequency(members []*candidateModel.Candidate, field func(*candidateModel.Candidate) []string) map[string]int {
	counts := make(map[string]int)
	for _, m := range members {
		for _, v := range field(m) {
			counts[v]++
		}
	}
	return counts
}

func mostCommon(counts map[string]int) (string, int) {
	best := ""
	bestCount := 0
	for k, v := range counts {
		if v > bestCount {
			best = k
			bestCount = v
		}
	}
	return best, bestCount
}

func topN(counts map[string]int, n int) []string {
	type kv struct {
		key   string
		count int
	}
	list := make([]kv, 0, len(counts))
	for k, v := range counts {
		list = append(list, kv{k, v})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].count != list[j].count {
			return list[i].count > list[j].count
		}
		return list[i].key < list[j].key
	})
	if len(list) > n {
		list = list[:n]
	}
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.key
	}
	return out
}

func avgExperience(members []*candidateModel.Candidate) float64 {
	if len(members) == 0 {
		return 0
	}
	var sum float64
	for _, m := range members {
		sum += m.ExperienceYears
	}
	return sum / float64(len(members))
}

func anyContains(list []string, substr string) bool {
	for _, s := range list {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

func joinSlash(parts []string) string {
	return strings.Join(parts, "/")
}
