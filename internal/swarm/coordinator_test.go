package swarm

import (
	"context"
	"testing"
	"time"

	"github.com/shaiso/Dispatch/internal/domain"
	"github.com/shaiso/Dispatch/internal/pool"
)

// newTestSwarm создаёт координатор с n воркерами в рое и в pool.
func newTestSwarm(t *testing.T, n int) (*Coordinator, *pool.Pool) {
	t.Helper()
	p := pool.New()
	c := NewCoordinator(p, Config{}, nil, nil)
	for i := 0; i < n; i++ {
		id := string(rune('a' + i))
		p.AddWorker(id)
		c.AddAgent(id)
	}
	return c, p
}

func TestAddAgent_InitialState(t *testing.T) {
	c, _ := newTestSwarm(t, 0)
	c.AddAgent("w-1")

	state := c.agents["w-1"]
	if state == nil {
		t.Fatal("expected agent state")
	}
	if state.successRate != 1.0 {
		t.Errorf("expected initial successRate 1.0, got %v", state.successRate)
	}
	if state.joinedAt.IsZero() {
		t.Error("expected joinedAt to be set")
	}
}

func TestAddAgent_Idempotent(t *testing.T) {
	c, _ := newTestSwarm(t, 0)
	c.AddAgent("w-1")
	c.RecordCompletion("w-1", false, time.Second)
	before := c.agents["w-1"].successRate

	// Повторный AddAgent не сбрасывает выученное состояние
	c.AddAgent("w-1")
	if c.agents["w-1"].successRate != before {
		t.Error("re-adding an agent must not reset its state")
	}
}

func TestRemoveAgent_DestroysState(t *testing.T) {
	c, _ := newTestSwarm(t, 0)
	c.AddAgent("w-1")
	c.RemoveAgent("w-1")

	if _, ok := c.agents["w-1"]; ok {
		t.Error("expected state destroyed on remove")
	}
	// Повторное удаление — no-op
	c.RemoveAgent("w-1")
}

func TestDistributeTask_ParticleSwarmCap(t *testing.T) {
	c, _ := newTestSwarm(t, 5)

	// Разные successRate, чтобы проверить порядок
	c.agents["a"].successRate = 0.5
	c.agents["b"].successRate = 0.9
	c.agents["c"].successRate = 0.7
	c.agents["d"].successRate = 0.95
	c.agents["e"].successRate = 0.3

	item := &domain.WorkItem{ID: "item-1", Type: "test"}
	result, err := c.DistributeTask(context.Background(), item, domain.SwarmParticle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 5 доступных участников → ровно 3, по убыванию fitness
	if len(result.Workers) != 3 {
		t.Fatalf("expected exactly 3 workers, got %d", len(result.Workers))
	}
	want := []string{"d", "b", "c"}
	for i, w := range result.Workers {
		if w.WorkerID != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], w.WorkerID)
		}
	}
}

func TestParticleSwarm_RecencyBonus(t *testing.T) {
	c, _ := newTestSwarm(t, 2)

	base := time.Now()
	c.now = func() time.Time { return base }

	// Равный successRate; a назначался только что, b — давно
	c.agents["a"].successRate = 0.8
	c.agents["b"].successRate = 0.8
	c.agents["a"].lastAssignedAt = base.Add(-time.Minute)
	c.agents["b"].lastAssignedAt = base.Add(-time.Hour)

	item := &domain.WorkItem{ID: "item-1"}
	result, err := c.DistributeTask(context.Background(), item, domain.SwarmParticle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Workers[0].WorkerID != "a" {
		t.Errorf("recently assigned worker must rank first, got %s", result.Workers[0].WorkerID)
	}
}

func TestParticleSwarm_CapabilityBonus(t *testing.T) {
	c, p := newTestSwarm(t, 2)

	c.agents["a"].successRate = 0.8
	c.agents["b"].successRate = 0.8
	p.SetCapabilities("b", domain.WorkerCapabilities{SupportedCapabilities: []string{"search"}})

	result, err := c.DistributeTask(context.Background(), &domain.WorkItem{ID: "i"}, domain.SwarmParticle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Workers[0].WorkerID != "b" {
		t.Errorf("worker with declared capabilities must rank first, got %s", result.Workers[0].WorkerID)
	}
}

func TestDistributeTask_AntColonyCap(t *testing.T) {
	c, _ := newTestSwarm(t, 4)

	c.agents["a"].successRate = 0.2
	c.agents["b"].successRate = 0.9
	c.agents["c"].successRate = 0.6
	c.agents["d"].successRate = 0.8

	result, err := c.DistributeTask(context.Background(), &domain.WorkItem{ID: "i"}, domain.SwarmAntColony)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Workers) != 2 {
		t.Fatalf("expected 2 workers, got %d", len(result.Workers))
	}
	if result.Workers[0].WorkerID != "b" || result.Workers[1].WorkerID != "d" {
		t.Errorf("expected [b d], got [%s %s]", result.Workers[0].WorkerID, result.Workers[1].WorkerID)
	}
}

func TestDistributeTask_FlockingLargestGroup(t *testing.T) {
	c, p := newTestSwarm(t, 5)

	// Группа {translate}: a, b, c; группа {search}: d; e без возможностей
	for _, id := range []string{"a", "b", "c"} {
		p.SetCapabilities(id, domain.WorkerCapabilities{SupportedCapabilities: []string{"translate"}})
	}
	p.SetCapabilities("d", domain.WorkerCapabilities{SupportedCapabilities: []string{"search"}})

	result, err := c.DistributeTask(context.Background(), &domain.WorkItem{ID: "i"}, domain.SwarmFlocking)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Workers) != 3 {
		t.Fatalf("expected the translate flock of 3, got %d", len(result.Workers))
	}
	for _, w := range result.Workers {
		if !w.Capabilities.Supports("translate") {
			t.Errorf("unexpected member %s", w.WorkerID)
		}
	}
}

func TestDistributeTask_FlockingNoGroups(t *testing.T) {
	// Никто не заявил возможностей — не более одного кандидата
	c, _ := newTestSwarm(t, 3)

	result, err := c.DistributeTask(context.Background(), &domain.WorkItem{ID: "i"}, domain.SwarmFlocking)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Workers) != 1 {
		t.Errorf("expected at most 1 worker without capability groups, got %d", len(result.Workers))
	}
}

func TestDistributeTask_ConsensusThreshold(t *testing.T) {
	c, p := newTestSwarm(t, 4)

	// a и b поддерживают search (голос 1.0), c и d — нет (0.3).
	// Порог 0.7 × 1.0 = 0.7 → проходят только a и b.
	p.SetCapabilities("a", domain.WorkerCapabilities{SupportedCapabilities: []string{"search"}})
	p.SetCapabilities("b", domain.WorkerCapabilities{SupportedCapabilities: []string{"search"}})

	item := &domain.WorkItem{ID: "i", RequiredCapability: "search"}
	result, err := c.DistributeTask(context.Background(), item, domain.SwarmConsensus)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Workers) != 2 {
		t.Fatalf("expected 2 workers, got %d", len(result.Workers))
	}
	for _, w := range result.Workers {
		if !w.Capabilities.Supports("search") {
			t.Errorf("non-supporting worker %s passed the vote", w.WorkerID)
		}
	}
}

func TestDistributeTask_ConsensusNoRequirement(t *testing.T) {
	// Без требуемой возможности все голосуют 1.0 — проходят все, cap 2
	c, _ := newTestSwarm(t, 4)

	result, err := c.DistributeTask(context.Background(), &domain.WorkItem{ID: "i"}, domain.SwarmConsensus)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Workers) != 2 {
		t.Errorf("expected cap of 2, got %d", len(result.Workers))
	}
}

func TestDistributeTask_NoCandidates(t *testing.T) {
	p := pool.New()
	c := NewCoordinator(p, Config{}, nil, nil)

	result, err := c.DistributeTask(context.Background(), &domain.WorkItem{ID: "i"}, domain.SwarmParticle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Workers) != 0 {
		t.Errorf("expected empty selection, got %d", len(result.Workers))
	}
	if result.Confidence != 0 {
		t.Errorf("expected confidence 0, got %v", result.Confidence)
	}
}

func TestDistributeTask_FiltersNonMembersAndUnavailable(t *testing.T) {
	p := pool.New()
	c := NewCoordinator(p, Config{}, nil, nil)

	p.AddWorker("member")
	c.AddAgent("member")

	p.AddWorker("outsider") // в pool, но не в рое

	p.AddWorker("busy")
	c.AddAgent("busy")
	p.SetStatus("busy", domain.WorkerStatusBusy)

	result, err := c.DistributeTask(context.Background(), &domain.WorkItem{ID: "i"}, domain.SwarmAntColony)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Workers) != 1 || result.Workers[0].WorkerID != "member" {
		t.Errorf("expected only the available swarm member, got %+v", result.Workers)
	}
}

func TestDistributeTask_ConfidenceBounds(t *testing.T) {
	strategies := []domain.SwarmStrategy{
		domain.SwarmParticle,
		domain.SwarmAntColony,
		domain.SwarmFlocking,
		domain.SwarmConsensus,
	}

	for _, n := range []int{0, 1, 3, 7} {
		c, _ := newTestSwarm(t, n)
		for _, strategy := range strategies {
			result, err := c.DistributeTask(context.Background(), &domain.WorkItem{ID: "i"}, strategy)
			if err != nil {
				t.Fatalf("%s/%d: unexpected error: %v", strategy, n, err)
			}
			if result.Confidence < 0 || result.Confidence > 1 {
				t.Errorf("%s/%d: confidence %v out of [0,1]", strategy, n, result.Confidence)
			}
		}
	}
}

func TestDistributeTask_UnknownStrategy(t *testing.T) {
	c, _ := newTestSwarm(t, 1)

	_, err := c.DistributeTask(context.Background(), &domain.WorkItem{ID: "i"}, domain.SwarmStrategy("MAGIC"))
	if err != ErrUnknownStrategy {
		t.Errorf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestDistributeTask_NilItem(t *testing.T) {
	c, _ := newTestSwarm(t, 1)

	if _, err := c.DistributeTask(context.Background(), nil, domain.SwarmParticle); err != ErrNilItem {
		t.Errorf("expected ErrNilItem, got %v", err)
	}
}

func TestRecordCompletion_EMA(t *testing.T) {
	c, _ := newTestSwarm(t, 0)
	c.AddAgent("w-1")

	// rate = 0.1·0 + 0.9·1.0 = 0.9
	c.RecordCompletion("w-1", false, time.Second)
	if got := c.agents["w-1"].successRate; got != 0.9 {
		t.Errorf("expected 0.9 after failure, got %v", got)
	}

	// rate = 0.1·1 + 0.9·0.9 = 0.91
	c.RecordCompletion("w-1", true, time.Second)
	if got := c.agents["w-1"].successRate; got < 0.9099 || got > 0.9101 {
		t.Errorf("expected ~0.91 after success, got %v", got)
	}
}

func TestRecordCompletion_UnknownWorkerIgnored(t *testing.T) {
	c, _ := newTestSwarm(t, 0)
	c.RecordCompletion("ghost", true, time.Second) // не должно паниковать
}

func TestRecordCompletion_WindowEviction(t *testing.T) {
	p := pool.New()
	c := NewCoordinator(p, Config{WindowCapacity: 3}, nil, nil)
	c.AddAgent("w-1")

	for i := 1; i <= 5; i++ {
		c.RecordCompletion("w-1", true, time.Duration(i)*time.Second)
	}

	if len(c.durations) != 3 {
		t.Fatalf("expected window of 3, got %d", len(c.durations))
	}
	// Остаются 3, 4, 5 секунд → среднее 4s
	stats := c.GetStatistics()
	if stats.AvgCompletionTime != 4*time.Second {
		t.Errorf("expected avg 4s, got %v", stats.AvgCompletionTime)
	}
}

func TestGetStatistics(t *testing.T) {
	c, _ := newTestSwarm(t, 3)

	result, err := c.DistributeTask(context.Background(), &domain.WorkItem{ID: "i"}, domain.SwarmParticle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats := c.GetStatistics()
	if stats.AgentCount != 3 {
		t.Errorf("expected 3 agents, got %d", stats.AgentCount)
	}
	if stats.ActiveTasks != len(result.Workers) {
		t.Errorf("expected %d active tasks, got %d", len(result.Workers), stats.ActiveTasks)
	}

	// Завершаем одно назначение — activeTasks уменьшается
	c.RecordCompletion(result.Workers[0].WorkerID, true, 2*time.Second)
	stats = c.GetStatistics()
	if stats.ActiveTasks != len(result.Workers)-1 {
		t.Errorf("expected %d active tasks, got %d", len(result.Workers)-1, stats.ActiveTasks)
	}

	if stats.EfficiencyScore < 0 || stats.EfficiencyScore > 1 {
		t.Errorf("efficiency score %v out of [0,1]", stats.EfficiencyScore)
	}
}

func TestVariance(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"uniform", []float64{2, 2, 2}, 0},
		{"spread", []float64{1, 3}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := variance(tt.values); got != tt.want {
				t.Errorf("variance(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}
