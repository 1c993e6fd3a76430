// Command demo wires every component of the talent graph end to end
// against a throwaway Postgres database and an on-disk sqlite-vec index,
// seeds a small dataset, and drives one pass through matching, decisioning,
// exceptional-talent scoring, interview prep, recruiter feedback, and the
// warm-vs-cold bandit learning comparison. It is a one-shot batch program,
// not a server: it logs its way through the pipeline and exits.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/andreypavlenko/talentgraph/internal/config"
	"github.com/andreypavlenko/talentgraph/internal/platform/llm"
	"github.com/andreypavlenko/talentgraph/internal/platform/logger"
	"github.com/andreypavlenko/talentgraph/internal/platform/postgres"
	"github.com/andreypavlenko/talentgraph/internal/platform/redis"
	"github.com/andreypavlenko/talentgraph/internal/platform/vectorstore"
	"github.com/andreypavlenko/talentgraph/internal/rng"
	"github.com/andreypavlenko/talentgraph/modules/bandit"
	candidateModel "github.com/andreypavlenko/talentgraph/modules/candidates/model"
	clustererSvc "github.com/andreypavlenko/talentgraph/modules/clusterer/service"
	"github.com/andreypavlenko/talentgraph/modules/embedding"
	"github.com/andreypavlenko/talentgraph/modules/feedback"
	interviewerModel "github.com/andreypavlenko/talentgraph/modules/interviewers/model"
	interviewerRepo "github.com/andreypavlenko/talentgraph/modules/interviewers/repository"
	kgservice "github.com/andreypavlenko/talentgraph/modules/knowledgegraph/service"
	"github.com/andreypavlenko/talentgraph/modules/matching"
	positionModel "github.com/andreypavlenko/talentgraph/modules/positions/model"
	positionRepo "github.com/andreypavlenko/talentgraph/modules/positions/repository"
	queryService "github.com/andreypavlenko/talentgraph/modules/query/service"
	teamModel "github.com/andreypavlenko/talentgraph/modules/teams/model"
	teamRepo "github.com/andreypavlenko/talentgraph/modules/teams/repository"
)

const tenantID = "demo-tenant"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "demo failed:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pg, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	if err := bootstrapSchema(ctx, pg); err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}

	vectors, err := vectorstore.Open(cfg.Vector.Path, cfg.Vector.Dim)
	if err != nil {
		return fmt.Errorf("open vector store: %w", err)
	}
	defer vectors.Close()

	embedder := embedding.New(cfg.Vector.Dim)

	teams := teamRepo.NewTeamRepository(pg.Pool)
	interviewers := interviewerRepo.NewInterviewerRepository(pg.Pool)
	positions := positionRepo.NewPositionRepository(pg.Pool)

	kg := kgservice.New(embedder, vectors, teams, interviewers, positions, log)

	clusterer := clustererSvc.New(cfg.Clusterer.KMin, cfg.Clusterer.KMax, cfg.Clusterer.NInit, cfg.Clusterer.Seed)

	banditSource := rng.New(cfg.Bandit.Seed)
	banditRegistry := bandit.NewRegistry(cfg.Bandit.LambdaFG, cfg.Bandit.WarmScale, banditSource)

	queryEngine := queryService.New(embedder, vectors, cfg.Query.HybridSearchDeadline, log)
	if redisClient, err := redis.New(ctx, cfg.Redis); err != nil {
		log.Sugar().Warnw("redis unavailable, query engine running without a filter cache", "error", err)
	} else {
		defer redisClient.Close()
		queryEngine.WithCache(queryService.NewRedisFilterCache(redisClient.Client, cfg.Query.FilterCacheTTL))
	}

	var parser llm.FeedbackParser = llm.NeutralParser{}
	if cfg.LLM.APIKey != "" {
		parser = llm.NewAnthropicParser(cfg.LLM.APIKey, cfg.LLM.Model)
	} else {
		log.Sugar().Warnw("no ANTHROPIC_API_KEY configured, feedback parsing will always degrade to neutral")
	}
	tracker := feedback.NewLearningTracker()
	feedbackLoop := feedback.NewLoop(kg, banditRegistry, tracker, parser, log, cfg.LLM.Timeout)

	log.Sugar().Infow("seeding demo dataset")
	team, interviewer, position, candidates, err := seed(ctx, kg)
	if err != nil {
		return fmt.Errorf("seed demo data: %w", err)
	}

	if err := runClustering(clusterer, kg, candidates); err != nil {
		log.Sugar().Warnw("clustering skipped", "error", err)
	}

	if err := runMatchingDemo(ctx, kg, team, interviewer, position, candidates); err != nil {
		return fmt.Errorf("run matching demo: %w", err)
	}

	runQueryDemo(ctx, queryEngine, candidates)

	if err := runFeedbackDemo(ctx, feedbackLoop, position, candidates); err != nil {
		return fmt.Errorf("run feedback demo: %w", err)
	}

	if err := runLearningDemo(candidates, cfg); err != nil {
		return fmt.Errorf("run learning demo: %w", err)
	}

	log.Sugar().Infow("demo complete")
	return nil
}

// bootstrapSchema creates the relational tables the repositories expect.
// A real deployment runs these as migrations ahead of time; the demo
// creates them inline so a fresh database is enough to run it.
func bootstrapSchema(ctx context.Context, pg *postgres.Client) error {
	_, err := pg.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS teams (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			name TEXT NOT NULL,
			domain TEXT NOT NULL,
			needs TEXT[] NOT NULL DEFAULT '{}',
			expertise TEXT[] NOT NULL DEFAULT '{}',
			member_ids TEXT[] NOT NULL DEFAULT '{}',
			open_positions TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS interviewers (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			expertise TEXT[] NOT NULL DEFAULT '{}',
			success_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
			cluster_success_rates JSONB NOT NULL DEFAULT '{}',
			interview_history JSONB NOT NULL DEFAULT '[]',
			team_id TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS positions (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			title TEXT NOT NULL,
			must_haves TEXT[] NOT NULL DEFAULT '{}',
			required_skills TEXT[] NOT NULL DEFAULT '{}',
			optional_skills TEXT[] NOT NULL DEFAULT '{}',
			domains TEXT[] NOT NULL DEFAULT '{}',
			experience_level INTEGER NOT NULL DEFAULT 0,
			selected_candidates TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
	`)
	return err
}

func seed(ctx context.Context, kg *kgservice.KnowledgeGraph) (*teamModel.Team, *interviewerModel.Interviewer, *positionModel.Position, []*candidateModel.Candidate, error) {
	team, err := kg.AddTeam(ctx, &teamModel.Team{
		TenantID:  tenantID,
		Name:      "Platform Infra",
		Domain:    "distributed-systems",
		Needs:     []string{"go", "kubernetes", "observability"},
		Expertise: []string{"go", "postgres", "kubernetes"},
	})
	if err != nil {
		return nil, nil, nil, nil, err
	}

	interviewer, err := kg.AddInterviewer(ctx, &interviewerModel.Interviewer{
		TenantID:            tenantID,
		Expertise:           []string{"go", "distributed-systems"},
		SuccessRate:         0.72,
		ClusterSuccessRates: map[string]float64{},
	})
	if err != nil {
		return nil, nil, nil, nil, err
	}

	if err := kg.LinkInterviewerToTeam(ctx, tenantID, interviewer.ID, team.ID); err != nil {
		return nil, nil, nil, nil, err
	}

	position, err := kg.AddPosition(ctx, &positionModel.Position{
		TenantID:        tenantID,
		Title:           "Senior Platform Engineer",
		MustHaves:       []string{"go", "kubernetes"},
		RequiredSkills:  []string{"go", "kubernetes", "postgres"},
		OptionalSkills:  []string{"redis", "grpc"},
		Domains:         []string{"distributed-systems"},
		ExperienceLevel: candidateModel.Senior,
	})
	if err != nil {
		return nil, nil, nil, nil, err
	}

	seedCandidates := []*candidateModel.Candidate{
		{
			TenantID: tenantID, Name: "Avery Kim", ExpertiseLevel: candidateModel.Senior,
			Skills: []string{"go", "kubernetes", "postgres", "grpc"}, Domains: []string{"distributed-systems"},
			ExperienceYears: 7,
			Papers:          []string{"Consensus at Scale", "Gossip Protocols in Practice"},
			GitHubStats:     candidateModel.GitHubStats{TotalStars: 42000, TotalRepos: 38, Languages: []string{"go", "rust"}},
		},
		{
			TenantID: tenantID, Name: "Priya Natarajan", ExpertiseLevel: candidateModel.Mid,
			Skills: []string{"python", "kubernetes"}, Domains: []string{"ml-infra"},
			ExperienceYears: 3,
		},
		{
			TenantID: tenantID, Name: "Jonah Webb", ExpertiseLevel: candidateModel.Staff,
			Skills: []string{"go", "postgres", "redis", "kubernetes"}, Domains: []string{"distributed-systems", "storage"},
			ExperienceYears: 10,
			GitHubStats:     candidateModel.GitHubStats{TotalStars: 5000, TotalRepos: 20, Languages: []string{"go"}},
		},
	}

	candidates := make([]*candidateModel.Candidate, 0, len(seedCandidates))
	for _, c := range seedCandidates {
		added, err := kg.AddCandidate(ctx, c)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		candidates = append(candidates, added)
	}

	candidateIDs := make([]string, len(candidates))
	for i, c := range candidates {
		candidateIDs[i] = c.ID
	}
	updatedPosition, err := kg.UpdatePosition(ctx, tenantID, position.ID, positionModel.Patch{SelectedCandidates: candidateIDs})
	if err != nil {
		return nil, nil, nil, nil, err
	}

	return team, interviewer, updatedPosition, candidates, nil
}

func runClustering(clusterer *clustererSvc.Clusterer, kg *kgservice.KnowledgeGraph, candidates []*candidateModel.Candidate) error {
	ctx := context.Background()
	vectors := make([]clustererSvc.CandidateVector, 0, len(candidates))
	for _, c := range candidates {
		vec, err := kg.FetchVector(ctx, "candidate", c.ID)
		if err != nil {
			return err
		}
		vectors = append(vectors, clustererSvc.CandidateVector{Candidate: c, Vector: vec})
	}

	result, err := clusterer.Cluster(vectors)
	if err != nil {
		return err
	}
	for id, name := range result.Assignments {
		for _, c := range candidates {
			if c.ID == id {
				c.AbilityCluster = &name
			}
		}
	}
	return nil
}

func runMatchingDemo(ctx context.Context, kg *kgservice.KnowledgeGraph, team *teamModel.Team, interviewer *interviewerModel.Interviewer, position *positionModel.Position, candidates []*candidateModel.Candidate) error {
	candidate := candidates[0]
	candidateVec, err := kg.FetchVector(ctx, "candidate", candidate.ID)
	if err != nil {
		return err
	}
	teamVec, err := kg.FetchVector(ctx, "team", team.ID)
	if err != nil {
		return err
	}
	interviewerVec, err := kg.FetchVector(ctx, "interviewer", interviewer.ID)
	if err != nil {
		return err
	}
	positionVec, err := kg.FetchVector(ctx, "position", position.ID)
	if err != nil {
		return err
	}

	source := rng.New(7)
	if _, err := matching.MatchToTeam(candidate, candidateVec, []*teamModel.Team{team}, map[string][]float32{team.ID: teamVec}, 4.0, 0.05, source); err != nil {
		return err
	}
	if _, err := matching.MatchToPerson(candidate, candidateVec, []*interviewerModel.Interviewer{interviewer}, map[string][]float32{interviewer.ID: interviewerVec}, 4.0, 0.05, source); err != nil {
		return err
	}

	decisionCfg := matching.DecisionConfig{
		SimilarityThreshold: 0.0,
		ConfidenceThreshold: 0.5,
		MustHaveStrictness:  1.0,
		BanditWarmScale:     4.0,
		BanditLambdaFG:      0.05,
	}
	_ = matching.MakePhoneScreenDecision(candidate, candidateVec, position, positionVec, nil, decisionCfg, source)
	_ = matching.ScoreCandidate(candidate, candidateVec, position, positionVec)
	_ = matching.GenerateInterviewPrep(candidate, position, team, interviewer)
	return nil
}

func runQueryDemo(ctx context.Context, engine *queryService.Engine, candidates []*candidateModel.Candidate) {
	filters := queryService.Filters{Skills: &queryService.SkillFilter{Required: []string{"go"}}}
	_ = engine.QueryCandidates(ctx, tenantID, candidates, filters, "strong distributed systems engineer", 10)
}

func runFeedbackDemo(ctx context.Context, loop *feedback.Loop, position *positionModel.Position, candidates []*candidateModel.Candidate) error {
	similarities := make([]float64, len(candidates))
	for i := range candidates {
		similarities[i] = 0.5
	}
	loop.RegisterPositionBandit(position.ID, position.SelectedCandidates, similarities)

	result := loop.ProcessFeedback(ctx, tenantID, candidates[0].ID, position.ID, "this candidate demonstrated excellent systems design judgment")
	if !result.Success {
		return fmt.Errorf("process feedback: %s", result.Error)
	}
	return nil
}

func runLearningDemo(candidates []*candidateModel.Candidate, cfg *config.Config) error {
	candidateIDs := make([]string, len(candidates))
	similarities := make([]float64, len(candidates))
	for i, c := range candidates {
		candidateIDs[i] = c.ID
		similarities[i] = float64(len(c.Skills)) / 10.0
	}

	simCfg := feedback.SimulationConfig{
		NumFeedbackEvents:   150,
		FeedbackProbability: 0.8,
		Kappa:               cfg.Bandit.WarmScale,
		LambdaFG:            cfg.Bandit.LambdaFG,
	}
	result, err := feedback.RunLearningSimulation(candidateIDs, similarities, simCfg, rng.New(cfg.Bandit.Seed))
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result.Improvement, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
