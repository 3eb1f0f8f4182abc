package swarm

import (
	"sort"
	"strings"

	"github.com/shaiso/Dispatch/internal/domain"
)

// scored — кандидат с вычисленным score эвристики.
type scored struct {
	worker domain.WorkerInfo
	score  float64
}

// rank сортирует кандидатов по убыванию score; при равенстве —
// по WorkerID, чтобы результат был детерминирован для фиксированного
// снапшота.
func rank(candidates []scored) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].worker.WorkerID < candidates[j].worker.WorkerID
	})
}

// take возвращает первых limit воркеров из ранжированного списка.
func take(candidates []scored, limit int) []domain.WorkerInfo {
	if limit > len(candidates) {
		limit = len(candidates)
	}
	out := make([]domain.WorkerInfo, 0, limit)
	for _, c := range candidates[:limit] {
		out = append(out, c.worker)
	}
	return out
}

// particleSwarm — top-3 по fitness:
// successRate × recencyBonus × capabilityBonus.
// Вызывается под мьютексом координатора.
func (c *Coordinator) particleSwarm(item *domain.WorkItem, candidates []domain.WorkerInfo) []domain.WorkerInfo {
	now := c.now()

	scoredList := make([]scored, 0, len(candidates))
	for _, w := range candidates {
		fitness := c.successRateOf(w.WorkerID)

		if state, ok := c.agents[w.WorkerID]; ok {
			if !state.lastAssignedAt.IsZero() && now.Sub(state.lastAssignedAt) <= c.cfg.RecencyWindow {
				fitness *= c.cfg.RecencyBonus
			}
		}

		if len(w.Capabilities.SupportedCapabilities) > 0 {
			fitness *= c.cfg.CapabilityBonus
		}

		scoredList = append(scoredList, scored{worker: w, score: fitness})
	}

	rank(scoredList)
	return take(scoredList, particleLimit)
}

// antColony — top-2 по уровню "феромона". Феромон воркера — его
// successRate; для воркеров без истории — 0.5.
func (c *Coordinator) antColony(candidates []domain.WorkerInfo) []domain.WorkerInfo {
	scoredList := make([]scored, 0, len(candidates))
	for _, w := range candidates {
		scoredList = append(scoredList, scored{worker: w, score: c.successRateOf(w.WorkerID)})
	}

	rank(scoredList)
	return take(scoredList, antColonyLimit)
}

// flocking — группирует кандидатов по точному (отсортированному)
// набору возможностей и выбирает крупнейшую группу, максимум 3.
// Если групп нет (ни один кандидат не заявил возможностей),
// выбирается не более одного произвольного кандидата.
func (c *Coordinator) flocking(candidates []domain.WorkerInfo) []domain.WorkerInfo {
	groups := make(map[string][]domain.WorkerInfo)
	for _, w := range candidates {
		if len(w.Capabilities.SupportedCapabilities) == 0 {
			continue
		}
		caps := append([]string(nil), w.Capabilities.SupportedCapabilities...)
		sort.Strings(caps)
		key := strings.Join(caps, ",")
		groups[key] = append(groups[key], w)
	}

	if len(groups) == 0 {
		return candidates[:1]
	}

	// Крупнейшая группа; при равенстве — лексикографически меньший
	// ключ (детерминизм)
	var bestKey string
	bestSize := -1
	for key, members := range groups {
		if len(members) > bestSize || (len(members) == bestSize && key < bestKey) {
			bestKey = key
			bestSize = len(members)
		}
	}

	flock := groups[bestKey]
	sort.Slice(flock, func(i, j int) bool {
		return flock[i].WorkerID < flock[j].WorkerID
	})
	if len(flock) > flockingLimit {
		flock = flock[:flockingLimit]
	}
	return flock
}

// consensus — голосование по соответствию возможностей: 1.0, если
// воркер поддерживает требуемую возможность (или она не задана),
// иначе 0.3. Проходят голоса ≥ ConsensusThreshold × maxVote,
// максимум 2 воркера.
func (c *Coordinator) consensus(item *domain.WorkItem, candidates []domain.WorkerInfo) []domain.WorkerInfo {
	scoredList := make([]scored, 0, len(candidates))
	maxVote := 0.0
	for _, w := range candidates {
		vote := 0.3
		if item.RequiredCapability == "" || w.Capabilities.Supports(item.RequiredCapability) {
			vote = 1.0
		}
		if vote > maxVote {
			maxVote = vote
		}
		scoredList = append(scoredList, scored{worker: w, score: vote})
	}

	passing := make([]scored, 0, len(scoredList))
	for _, s := range scoredList {
		if s.score >= c.cfg.ConsensusThreshold*maxVote {
			passing = append(passing, s)
		}
	}

	rank(passing)
	return take(passing, consensusLimit)
}
