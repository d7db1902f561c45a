package engine

import (
	"sort"

	"github.com/hotelops/taskrouter/internal/domain"
)

// Scoring weights. The open-task term assumes a nominal ceiling of ten
// concurrent tasks per staff member; heavier loads go negative and sink
// the candidate.
const (
	workloadWeight    = 0.4
	workloadCeiling   = 10
	performanceWeight = 0.4
	priorityBoost     = 2.0
)

// Score computes a candidate's fitness for a task. Pure, no I/O:
//
//	score = (10 - openTaskCount) * 0.4
//	      + completionRate * 0.4
//	      + skillMatch * skillWeight
//	      + 2 if priority is high or urgent
func Score(c domain.Candidate, t *domain.Task, skillWeight float64) float64 {
	score := (workloadCeiling - float64(c.OpenTaskCount)) * workloadWeight
	score += c.CompletionRate * performanceWeight
	score += SkillMatch(c.Skills, t.RequiredSkills) * skillWeight
	if t.Priority.Boosting() {
		score += priorityBoost
	}
	return score
}

// SkillMatch averages, over the task's declared skill requirements,
// min(candidateLevel, requiredLevel) / requiredLevel. A task with no
// requirements matches everyone fully.
func SkillMatch(have, need map[string]float64) float64 {
	if len(need) == 0 {
		return 1
	}
	var sum float64
	for skill, required := range need {
		if required <= 0 {
			sum += 1
			continue
		}
		level := have[skill]
		if level < 0 {
			level = 0
		}
		if level > required {
			level = required
		}
		sum += level / required
	}
	return sum / float64(len(need))
}

// ScoredCandidate pairs a candidate with its computed score.
type ScoredCandidate struct {
	domain.Candidate
	Score float64
}

// Rank scores every candidate and sorts descending. The sort is stable:
// ties keep the candidate list order, so a directory that rotates its
// result order yields round-robin distribution on ties.
func Rank(candidates []domain.Candidate, t *domain.Task, skillWeight float64) []ScoredCandidate {
	ranked := make([]ScoredCandidate, len(candidates))
	for i, c := range candidates {
		ranked[i] = ScoredCandidate{Candidate: c, Score: Score(c, t, skillWeight)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
