package analysis

import (
	"context"
	"fmt"
	"log"
	"time"

	"clausecheck-backend/llm"
	"clausecheck-backend/models"
)

const (
	noCandidateRationale  = "no clause found addressing this requirement category."
	unavailableRationale  = "service unavailable: the requirement could not be evaluated against any candidate clause."
	unreadableRationale   = "the compliance judgment could not be interpreted for any candidate clause."
	unclassifiedRationale = "service unavailable: some clauses could not be classified, so none was found addressing this requirement category."

	judgeSchema = `{"status": "satisfied" | "partial" | "missing", "rationale": "<one or two sentences>"}`
)

// RuleEngine judges clauses against regulation requirements
type RuleEngine struct {
	service llm.Service
	timeout time.Duration
	limit   int
	// unclassified counts clauses whose classification failed. Such clauses
	// may address a requirement without being a candidate for it.
	unclassified int
}

// judgeJob is one (requirement, candidate clause) service call
type judgeJob struct {
	regulation  int
	requirement int
	clause      int
}

type judgment struct {
	status    models.VerdictStatus
	rationale string
	err       error
}

// Evaluate returns exactly one verdict per requirement of every regulation,
// in catalog order. Service failures degrade verdicts instead of failing.
func (e *RuleEngine) Evaluate(ctx context.Context, regulations []models.Regulation, clauses []models.Clause) map[models.RegulationCode][]models.ComplianceVerdict {
	// candidates[r][q] are clause indexes in sequence order
	candidates := make([][][]int, len(regulations))
	var jobs []judgeJob
	for r, reg := range regulations {
		candidates[r] = make([][]int, len(reg.Requirements))
		for q, req := range reg.Requirements {
			for c, clause := range clauses {
				if !req.AppliesTo(clause.Category) {
					continue
				}
				candidates[r][q] = append(candidates[r][q], len(jobs))
				jobs = append(jobs, judgeJob{regulation: r, requirement: q, clause: c})
			}
		}
	}

	judgments := make([]judgment, len(jobs))
	for i := range judgments {
		judgments[i].err = models.NewError(models.KindServiceUnavailable, "judgment not issued")
	}

	forEach(ctx, e.limit, len(jobs), func(ctx context.Context, i int) {
		job := jobs[i]
		reg := regulations[job.regulation]
		judgments[i] = e.judge(ctx, reg, reg.Requirements[job.requirement], clauses[job.clause])
	})

	results := make(map[models.RegulationCode][]models.ComplianceVerdict, len(regulations))
	for r, reg := range regulations {
		verdicts := make([]models.ComplianceVerdict, 0, len(reg.Requirements))
		for q, req := range reg.Requirements {
			verdict := selectVerdict(req, candidates[r][q], jobs, judgments, clauses)
			if e.unclassified > 0 && verdict.Status != models.StatusSatisfied {
				verdict.Degraded = true
				if len(candidates[r][q]) == 0 {
					verdict.Rationale = unclassifiedRationale
				}
			}
			verdicts = append(verdicts, verdict)
		}
		results[reg.Code] = verdicts
	}
	return results
}

func (e *RuleEngine) judge(ctx context.Context, reg models.Regulation, req models.Requirement, clause models.Clause) judgment {
	raw, err := callService(ctx, e.service, e.timeout, llm.Request{
		Task:        llm.TaskJudge,
		Instruction: judgeInstruction(reg, req),
		Input:       clause.Text,
		SchemaHint:  judgeSchema,
	})
	if err != nil {
		log.Printf("Warning: failed to judge %s against clause %d: %v", req.ID, clause.SequenceIndex, err)
		return judgment{status: models.StatusMissing, err: err}
	}

	var resp struct {
		Status    string `json:"status"`
		Rationale string `json:"rationale"`
	}
	if err := llm.DecodeJSON(raw, &resp); err != nil {
		log.Printf("Warning: unparseable judgment for %s against clause %d: %v", req.ID, clause.SequenceIndex, err)
		return judgment{status: models.StatusMissing, err: err}
	}
	status, ok := models.ParseVerdictStatus(resp.Status)
	if !ok {
		err := fmt.Errorf("unknown verdict status %q", resp.Status)
		log.Printf("Warning: unparseable judgment for %s against clause %d: %v", req.ID, clause.SequenceIndex, err)
		return judgment{status: models.StatusMissing, err: err}
	}
	return judgment{status: status, rationale: resp.Rationale}
}

func judgeInstruction(reg models.Regulation, req models.Requirement) string {
	return fmt.Sprintf(`You are a compliance reviewer for %s (%s).
Requirement %s: %s

Decide whether the contract clause below satisfies this requirement.
Answer "satisfied" when the clause fully addresses it, "partial" when it addresses it
incompletely or vaguely, and "missing" when it does not address it. Explain briefly.`,
		reg.Name, reg.Code, req.ID, req.Description)
}

// selectVerdict picks the best judged status among the candidates, earliest clause first on ties.
// Failed candidates count as degraded Missing and lose ties against real judgments.
func selectVerdict(req models.Requirement, jobIdx []int, jobs []judgeJob, judgments []judgment, clauses []models.Clause) models.ComplianceVerdict {
	if len(jobIdx) == 0 {
		return models.ComplianceVerdict{
			RequirementID: req.ID,
			Status:        models.StatusMissing,
			Rationale:     noCandidateRationale,
		}
	}

	best := -1
	serviceFailures := 0
	for _, i := range jobIdx {
		j := judgments[i]
		if j.err != nil {
			if models.IsServiceFailure(j.err) {
				serviceFailures++
			}
			continue
		}
		if best < 0 || j.status.Rank() > judgments[best].status.Rank() {
			best = i
		}
	}

	if best >= 0 {
		id := clauses[jobs[best].clause].ID
		verdict := models.ComplianceVerdict{
			RequirementID: req.ID,
			ClauseID:      &id,
			Status:        judgments[best].status,
			Rationale:     judgments[best].rationale,
		}
		// a failed candidate might have scored higher
		verdict.Degraded = verdict.Status != models.StatusSatisfied && anyFailed(jobIdx, judgments)
		return verdict
	}

	id := clauses[jobs[jobIdx[0]].clause].ID
	rationale := unreadableRationale
	if serviceFailures == len(jobIdx) {
		rationale = unavailableRationale
	}
	return models.ComplianceVerdict{
		RequirementID: req.ID,
		ClauseID:      &id,
		Status:        models.StatusMissing,
		Rationale:     rationale,
		Degraded:      true,
	}
}

func anyFailed(jobIdx []int, judgments []judgment) bool {
	for _, i := range jobIdx {
		if judgments[i].err != nil {
			return true
		}
	}
	return false
}
