package analytics

import (
	"sort"

	"realty_pipeline_backend/internal/leads/domain"
)

// BoardColumn is one stage of the kanban view.
type BoardColumn struct {
	Stage domain.Stage  `json:"stage"`
	Label string        `json:"label"`
	Leads []domain.Lead `json:"leads"`
}

// Board groups leads into one column per stage in pipeline order, hottest
// first within a column and newest first on ties. Leads with an unknown stage
// are left off the board.
func Board(leads []domain.Lead) []BoardColumn {
	byStage := make(map[domain.Stage][]domain.Lead, domain.StageCount)
	for _, l := range leads {
		if domain.IsKnownStage(l.Stage) {
			byStage[l.Stage] = append(byStage[l.Stage], l)
		}
	}

	stages := domain.Stages()
	out := make([]BoardColumn, 0, len(stages))
	for _, stage := range stages {
		col := byStage[stage]
		if col == nil {
			col = []domain.Lead{}
		}
		sort.SliceStable(col, func(i, j int) bool {
			if col[i].HeatScore != col[j].HeatScore {
				return col[i].HeatScore > col[j].HeatScore
			}
			return col[i].CreatedAt.After(col[j].CreatedAt)
		})
		out = append(out, BoardColumn{Stage: stage, Label: stage.Label(), Leads: col})
	}
	return out
}
