package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreypavlenko/talentgraph/internal/kgerrors"
	candidateModel "github.com/andreypavlenko/talentgraph/modules/candidates/model"
	interviewerModel "github.com/andreypavlenko/talentgraph/modules/interviewers/model"
)

func makeCandidateVector(id string, skills []string, vec []float32) CandidateVector {
	return CandidateVector{
		Candidate: &candidateModel.Candidate{ID: id, Skills: skills, Domains: []string{"distributed-systems"}, ExperienceYears: 5},
		Vector:    vec,
	}
}

func twoWellSeparatedClusters() []CandidateVector {
	var vectors []CandidateVector
	for i := 0; i < 5; i++ {
		vectors = append(vectors, makeCandidateVector("a"+string(rune('0'+i)), []string{"go", "kubernetes"}, []float32{1, 1, 1}))
	}
	for i := 0; i < 5; i++ {
		vectors = append(vectors, makeCandidateVector("b"+string(rune('0'+i)), []string{"python", "ml"}, []float32{-1, -1, -1}))
	}
	return vectors
}

func TestCluster_RejectsTooFewCandidates(t *testing.T) {
	c := New(5, 10, 2, 1)
	_, err := c.Cluster([]CandidateVector{makeCandidateVector("a", nil, []float32{1, 0, 0})})
	require.Error(t, err)
	assert.Equal(t, kgerrors.ValidationError, kgerrors.GetKind(err))
}

func TestCluster_SeparatesDistinctGroups(t *testing.T) {
	c := New(2, 3, 5, 1)
	result, err := c.Cluster(twoWellSeparatedClusters())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.OptimalK, 2)
	assert.Len(t, result.Assignments, 10)
	assert.NotEqual(t, result.Assignments["a0"], result.Assignments["b0"])
}

func TestAssignOne_RequiresPriorCluster(t *testing.T) {
	c := New(2, 3, 5, 1)
	_, err := c.AssignOne([]float32{1, 1, 1})
	require.Error(t, err)
	assert.Equal(t, kgerrors.InvariantViolation, kgerrors.GetKind(err))
}

func TestAssignOne_MatchesNearestCentroidAfterTraining(t *testing.T) {
	c := New(2, 3, 5, 1)
	_, err := c.Cluster(twoWellSeparatedClusters())
	require.NoError(t, err)

	label, err := c.AssignOne([]float32{0.9, 0.9, 0.9})
	require.NoError(t, err)
	assert.NotEmpty(t, label)
}

func TestUpdateInterviewerClusterRates_ComputesHireRatePerCluster(t *testing.T) {
	interviewers := []*interviewerModel.Interviewer{
		{
			ID: "i1",
			InterviewHistory: []interviewerModel.InterviewRecord{
				{CandidateID: "c1", Result: "hired"},
				{CandidateID: "c2", Result: "reject"},
			},
		},
	}
	clusterOf := func(candidateID string) (string, bool) {
		return "backend", true
	}

	rates := UpdateInterviewerClusterRates(interviewers, clusterOf)
	require.Contains(t, rates, "i1")
	assert.InDelta(t, 0.5, rates["i1"]["backend"], 1e-9)
}

func TestUpdateInterviewerClusterRates_SkipsInterviewersWithNoHistory(t *testing.T) {
	interviewers := []*interviewerModel.Interviewer{{ID: "i1"}}
	rates := UpdateInterviewerClusterRates(interviewers, func(string) (string, bool) { return "", false })
	assert.Empty(t, rates)
}
